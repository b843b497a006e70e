package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific slot
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Slot     Slot
	Offset   uint64
	Data     []byte
}
