package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Output receives the formatted request and response of every message.
type Output interface {
	Write(id string, contents string)
}

// FilesystemOutput writes every message to its own file in a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates dir if needed and a fresh "run-*" directory inside it
// that receives the messages. Nothing already in dir is touched.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create %s: %w", dir, err)
	}
	run, err := os.MkdirTemp(dir, "run-")
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create run directory in %s: %w", dir, err)
	}
	return FilesystemOutput{directory: run}, nil
}

// Dir is the directory messages are written to.
func (o FilesystemOutput) Dir() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

// MemoryOutput keeps every message in memory.
type MemoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{messages: map[string]string{}}
}

func (o *MemoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.messages[id] = contents
}

func (o *MemoryOutput) Messages() map[string]string {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	out := make(map[string]string, len(o.messages))
	for k, v := range o.messages {
		out[k] = v
	}
	return out
}
