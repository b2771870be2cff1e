package internal

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OsProxy defines the subset of os package functions the local file
// sources use. Tests swap it for an in-memory implementation.
type OsProxy interface {
	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	Getwd() (string, error)
	Abs(path string) (string, error)
	DirFS(dir string) fs.FS
}

// RealOS is the default implementation that delegates to the real os package.
type RealOS struct{}

func (RealOS) Stat(name string) (os.FileInfo, error)  { return os.Stat(name) }      //nolint:revive
func (RealOS) Lstat(name string) (os.FileInfo, error) { return os.Lstat(name) }     //nolint:revive
func (RealOS) ReadFile(name string) ([]byte, error)   { return os.ReadFile(name) }  //nolint:revive
func (RealOS) Getwd() (string, error)                 { return os.Getwd() }         //nolint:revive
func (RealOS) Abs(path string) (string, error)        { return filepath.Abs(path) } //nolint:revive
func (RealOS) DirFS(dir string) fs.FS                 { return os.DirFS(dir) }      //nolint:revive
