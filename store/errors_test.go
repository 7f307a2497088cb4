package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"enoent", errors.New("open /x: no such file or directory"), ErrNotFound},
		{"s3 no such key", errors.New("NoSuchKey: the specified key does not exist"), ErrNotFound},
		{"eacces", errors.New("mkdir /x: permission denied"), ErrPermissionDenied},
		{"s3 access denied", errors.New("AccessDenied: not authorized"), ErrAccessDenied},
		{"enospc", errors.New("write /x: no space left on device"), ErrDiskFull},
		{"deadline", errors.New("context deadline exceeded"), ErrTimeout},
		{"throttle", errors.New("SlowDown: reduce request rate"), ErrThrottled},
		{"credentials", errors.New("NoCredentialProviders: no valid providers"), ErrAuth},
		{"refused", errors.New("dial tcp 127.0.0.1:9000: connection refused"), ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapWriteError(tt.err, "some/key")
			if !errors.Is(wrapped, tt.want) {
				t.Errorf("classification = %v, want %v", wrapped, tt.want)
			}
		})
	}
}

func TestWrapNilError(t *testing.T) {
	if err := WrapWriteError(nil, "k"); err != nil {
		t.Errorf("WrapWriteError(nil) = %v", err)
	}
	if err := WrapReadError(nil, "k"); err != nil {
		t.Errorf("WrapReadError(nil) = %v", err)
	}
}

func TestStorageErrorChain(t *testing.T) {
	underlying := errors.New("open /x: no such file or directory")
	wrapped := WrapReadError(fmt.Errorf("segment read: %w", underlying), "a/b.seg")

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("sentinel not matched through chain")
	}
	if !errors.Is(wrapped, underlying) {
		t.Error("underlying error lost from chain")
	}

	var storageErr *StorageError
	if !errors.As(wrapped, &storageErr) || storageErr.Op != "read" || storageErr.Key != "a/b.seg" {
		t.Errorf("StorageError = %+v", storageErr)
	}
}
