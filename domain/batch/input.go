package batch

import (
	"fmt"
	"time"
)

// Input is a file handed to the batch by the file selection layer
type Input struct {
	Name        string
	ModTime     time.Time
	ContentType string
	Data        []byte
}

// ID identifies a job; two inputs with the same name and modification time share an ID
type ID string

// ID returns the de-duplication key "<name>-<modtime in unix milliseconds>"
func (in Input) ID() ID {
	return ID(fmt.Sprintf("%s-%d", in.Name, in.ModTime.UnixMilli()))
}

// Output is the encoded result of a finished job
type Output struct {
	ID   ID
	Name string
	Data []byte
}
