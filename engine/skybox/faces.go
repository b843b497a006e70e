package skybox

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-msaa/common"
)

// FaceNames lists the cube faces in upload order: +X, -X, +Y, -Y, +Z, -Z.
var FaceNames = [6]string{"right", "left", "top", "bottom", "front", "back"}

// ErrFaceSize is returned when the cube faces are not square or differ in size.
var ErrFaceSize = errors.New("skybox faces must be square and the same size")

// LoadFaces decodes the six <name>.png faces of a skybox directory in parallel on a worker pool.
// The call blocks until every face is decoded.
//
// Parameters:
//   - dir: the directory holding right.png, left.png, top.png, bottom.png, front.png and back.png
//   - pool: the worker pool running the decodes
//
// Returns:
//   - [6]common.TextureStagingData: the decoded faces in FaceNames order
//   - error: the joined decode errors, or ErrFaceSize when the faces do not form a cube
func LoadFaces(dir string, pool worker.DynamicWorkerPool) ([6]common.TextureStagingData, error) {
	var (
		faces [6]common.TextureStagingData
		errs  [6]error
		wg    sync.WaitGroup
	)

	for i, name := range FaceNames {
		wg.Add(1)
		idx := i
		path := filepath.Join(dir, name+".png")
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				faces[idx], errs[idx] = common.DecodeImageFile(path)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		return [6]common.TextureStagingData{}, fmt.Errorf("cubemap fail: %w", err)
	}
	if err := checkFaces(faces); err != nil {
		return [6]common.TextureStagingData{}, err
	}

	return faces, nil
}

func checkFaces(faces [6]common.TextureStagingData) error {
	size := faces[0].Width
	for i, f := range faces {
		if f.Width != f.Height || f.Width != size || size == 0 {
			return fmt.Errorf("%s is %dx%d: %w", FaceNames[i], f.Width, f.Height, ErrFaceSize)
		}
	}
	return nil
}

// cubeVertices is a unit cube of 36 positions, two triangles per face,
// wound counter-clockwise seen from outside.
var cubeVertices = [36][3]float32{
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1},
	{1, 1, 1}, {-1, 1, 1}, {-1, -1, 1},

	{-1, -1, -1}, {1, 1, -1}, {1, -1, -1},
	{1, 1, -1}, {-1, -1, -1}, {-1, 1, -1},

	{-1, 1, -1}, {-1, -1, 1}, {-1, 1, 1},
	{-1, -1, 1}, {-1, 1, -1}, {-1, -1, -1},

	{1, 1, -1}, {1, 1, 1}, {1, -1, 1},
	{1, -1, 1}, {1, -1, -1}, {1, 1, -1},

	{-1, -1, -1}, {1, -1, -1}, {1, -1, 1},
	{1, -1, 1}, {-1, -1, 1}, {-1, -1, -1},

	{-1, 1, -1}, {1, 1, 1}, {1, 1, -1},
	{1, 1, 1}, {-1, 1, -1}, {-1, 1, 1},
}

// CubeVertexCount is the number of vertices drawn for the skybox.
const CubeVertexCount = len(cubeVertices)

// CubeVertexBytes returns the cube positions as tightly packed vec3<f32> data.
func CubeVertexBytes() []byte {
	return append([]byte(nil), common.SliceToBytes(cubeVertices[:])...)
}
