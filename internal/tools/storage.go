package tools

import (
	"context"

	"mcp-toolbox/internal/storage"
)

// ErrKeyNotFound is returned by storage_get for an absent key.
var ErrKeyNotFound = &ToolError{Message: "Key not found"}

// KeyInput is the input of storage_get and storage_delete.
type KeyInput struct {
	Key string `json:"key" jsonschema:"The key to look up"`
}

// SetInput is the input of storage_set.
type SetInput struct {
	Key   string `json:"key" jsonschema:"The key to store"`
	Value string `json:"value" jsonschema:"The value to store"`
}

// DeleteResult is the output of storage_delete.
type DeleteResult struct {
	Deleted bool   `json:"deleted"`
	Key     string `json:"key"`
}

// ListResult is the output of storage_list.
type ListResult struct {
	Items []storage.Item `json:"items"`
	Count int            `json:"count"`
}

type storageHandlers struct {
	store *storage.Store
}

func (h storageHandlers) set(_ context.Context, in SetInput) (any, error) {
	return h.store.Set(in.Key, in.Value), nil
}

func (h storageHandlers) get(_ context.Context, in KeyInput) (any, error) {
	it, ok := h.store.Get(in.Key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return it, nil
}

func (h storageHandlers) delete(_ context.Context, in KeyInput) (any, error) {
	return DeleteResult{Deleted: h.store.Delete(in.Key), Key: in.Key}, nil
}

func (h storageHandlers) list(_ context.Context, _ struct{}) (any, error) {
	items := h.store.List()
	return ListResult{Items: items, Count: len(items)}, nil
}

func registerStorage(r *Registry, s *storage.Store) error {
	h := storageHandlers{store: s}
	if err := addTool(r, "storage_set", "Store a key-value pair in memory", h.set, nil); err != nil {
		return err
	}
	if err := addTool(r, "storage_get", "Retrieve a value by key from memory", h.get, nil); err != nil {
		return err
	}
	if err := addTool(r, "storage_delete", "Delete a key-value pair from memory", h.delete, nil); err != nil {
		return err
	}
	return addTool(r, "storage_list", "List all stored key-value pairs", h.list, nil)
}
