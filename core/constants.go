package core

const (
	SegmentFileExt = ".log"

	// FirstGeneration is the generation used for writes in an empty directory.
	FirstGeneration GenerationID = 1

	DirPerm  = 0755
	FilePerm = 0644
)
