package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
)

func TestLocalAdapter(t *testing.T) {
	tmpDir := t.TempDir()
	adapter, err := NewLocalAdapter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	testPath := "analyses/a1/analysis.json"
	testData := []byte(`{"summary":"hello"}`)

	// Test Put
	t.Run("Put", func(t *testing.T) {
		err := adapter.Put(ctx, testPath, bytes.NewReader(testData))
		if err != nil {
			t.Fatalf("Failed to put data: %v", err)
		}
	})

	// Test Exists
	t.Run("Exists", func(t *testing.T) {
		exists, err := adapter.Exists(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if !exists {
			t.Error("File should exist after Put")
		}
	})

	// Test Get
	t.Run("Get", func(t *testing.T) {
		reader, err := adapter.Get(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to get data: %v", err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("Failed to read data: %v", err)
		}

		if !bytes.Equal(data, testData) {
			t.Errorf("Expected %s, got %s", testData, data)
		}
	})

	// Test List
	t.Run("List", func(t *testing.T) {
		if err := adapter.Put(ctx, "analyses/a1/source.pdf", bytes.NewReader([]byte("%PDF"))); err != nil {
			t.Fatalf("Failed to put data: %v", err)
		}
		if err := adapter.Put(ctx, "other/x.txt", bytes.NewReader([]byte("x"))); err != nil {
			t.Fatalf("Failed to put data: %v", err)
		}

		paths, err := adapter.List(ctx, "analyses/")
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}

		want := []string{"analyses/a1/analysis.json", "analyses/a1/source.pdf"}
		if len(paths) != len(want) {
			t.Fatalf("Expected %v, got %v", want, paths)
		}
		for i := range want {
			if paths[i] != want[i] {
				t.Errorf("Expected %s at %d, got %s", want[i], i, paths[i])
			}
		}
	})

	// Test Delete
	t.Run("Delete", func(t *testing.T) {
		err := adapter.Delete(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to delete data: %v", err)
		}

		exists, err := adapter.Exists(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if exists {
			t.Error("File should not exist after Delete")
		}
	})

	// Test Get non-existent file
	t.Run("GetNonExistent", func(t *testing.T) {
		_, err := adapter.Get(ctx, "non-existent.txt")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteNonExistent", func(t *testing.T) {
		if err := adapter.Delete(ctx, "non-existent.txt"); err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := "analyses/a2/analysis.json"
		if err := adapter.Put(ctx, key, bytes.NewReader([]byte("first"))); err != nil {
			t.Fatal(err)
		}
		if err := adapter.Put(ctx, key, bytes.NewReader([]byte("second"))); err != nil {
			t.Fatal(err)
		}
		reader, err := adapter.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		defer reader.Close()
		data, _ := io.ReadAll(reader)
		if string(data) != "second" {
			t.Errorf("Expected second, got %s", data)
		}
	})
}

func TestLocalAdapterRejectsTraversal(t *testing.T) {
	adapter, err := NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}

	for _, key := range []string{"", "../escape.txt", "analyses/../../etc/passwd"} {
		t.Run(key, func(t *testing.T) {
			if err := adapter.Put(context.Background(), key, bytes.NewReader([]byte("x"))); err == nil {
				t.Errorf("Expected error for key %q", key)
			}
		})
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "analyses/a/analysis.json", want: "analyses/a/analysis.json"},
		{in: "/analyses//a/", want: "analyses/a"},
		{in: "a\\b", want: "a/b"},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: "a/../b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanKey(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLocalAdapterConcurrency(t *testing.T) {
	tmpDir := t.TempDir()
	adapter, err := NewLocalAdapter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			key := fmt.Sprintf("analyses/%d/analysis.json", idx)
			if err := adapter.Put(ctx, key, bytes.NewReader([]byte("test data"))); err != nil {
				t.Errorf("Failed to put data: %v", err)
			}
		}(i)
	}
	wg.Wait()

	keys, err := adapter.List(ctx, "analyses/")
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}
	if len(keys) != 10 {
		t.Errorf("Expected 10 keys, got %d", len(keys))
	}
}
