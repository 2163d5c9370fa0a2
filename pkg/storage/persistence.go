package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

func (se *StorageEngine) collectionsDir() string {
	return filepath.Join(se.dataDir, "collections")
}

// collectionPath maps a collection name onto a file inside the collections
// directory. Names are path-escaped so they cannot leave the directory.
func (se *StorageEngine) collectionPath(collName string) (string, error) {
	if collName == "" || collName == "." || collName == ".." {
		return "", fmt.Errorf("invalid collection name %q", collName)
	}
	return filepath.Join(se.collectionsDir(), url.PathEscape(collName)+FileExtension), nil
}

// LoadCollectionMetadata registers every collection file found in the data
// directory without loading its documents
func (se *StorageEngine) LoadCollectionMetadata() error {
	entries, err := os.ReadDir(se.collectionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read collections directory: %w", err)
	}

	se.mu.Lock()
	defer se.mu.Unlock()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, FileExtension) {
			continue
		}
		collName, err := url.PathUnescape(strings.TrimSuffix(name, FileExtension))
		if err != nil {
			se.logger.Warnf("Skipping collection file with malformed name %s: %v", name, err)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat collection file %s: %w", name, err)
		}
		se.collections[collName] = &CollectionInfo{
			Name:         collName,
			SizeOnDisk:   info.Size(),
			State:        CollectionStateUnloaded,
			LastModified: info.ModTime(),
		}
	}
	return nil
}

// saveCollectionToFile writes docs and index definitions to the collection
// file. The file is replaced atomically via rename.
func (se *StorageEngine) saveCollectionToFile(collName string, docs map[string]domain.Document, indexes map[string]bool) (int64, error) {
	path, err := se.collectionPath(collName)
	if err != nil {
		return 0, err
	}

	storageData := NewStorageData(collName)
	for docID, doc := range docs {
		storageData.Documents[docID] = map[string]interface{}(doc)
	}
	for field, unique := range indexes {
		storageData.Indexes[field] = unique
	}
	storageData.Metadata["document_count"] = len(docs)
	storageData.Metadata["saved_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	msgpackData, err := msgpack.Marshal(storageData)
	if err != nil {
		return 0, fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	payload, flags, err := compress(msgpackData)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, payload, len(msgpackData), flags); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	buf.Write(payload)

	tmp, err := os.CreateTemp(se.collectionsDir(), ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write collection data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync collection file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close collection file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to replace collection file: %w", err)
	}

	se.logger.Debugf("Saved collection '%s' (%d documents, %d bytes)", collName, len(docs), buf.Len())
	return int64(buf.Len()), nil
}

// loadCollectionFromDisk loads a single collection and its index
// definitions from disk
func (se *StorageEngine) loadCollectionFromDisk(collName string) (*domain.Collection, map[string]bool, error) {
	path, err := se.collectionPath(collName)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	header, err := ReadHeader(file)
	if err != nil {
		return nil, nil, err
	}
	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read collection data: %w", err)
	}
	if err := header.Verify(payload); err != nil {
		return nil, nil, err
	}

	raw, err := decompress(payload, header)
	if err != nil {
		return nil, nil, err
	}

	var storageData StorageData
	if err := msgpack.Unmarshal(raw, &storageData); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode MessagePack: %v", domain.ErrCorruptFile, err)
	}

	collection := domain.NewCollection(collName)
	for docID, docData := range storageData.Documents {
		collection.Documents[docID] = domain.Document(docData)
	}

	se.logger.Debugf("Loaded collection '%s' (%d documents) from disk", collName, len(collection.Documents))
	return collection, storageData.Indexes, nil
}

// removeCollectionFile deletes the collection file if it exists
func (se *StorageEngine) removeCollectionFile(collName string) error {
	path, err := se.collectionPath(collName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove collection file: %w", err)
	}
	return nil
}

// compress lz4-compresses data, falling back to the raw bytes when they do
// not compress
func compress(data []byte) ([]byte, uint8, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(data, compressed, hashTable[:])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to compress data: %w", err)
	}
	if n == 0 || n >= len(data) {
		return data, 0, nil
	}
	return compressed[:n], FlagCompressed, nil
}

func decompress(payload []byte, header *FileHeader) ([]byte, error) {
	if header.Flags&FlagCompressed == 0 {
		return payload, nil
	}
	raw := make([]byte, header.RawSize)
	n, err := lz4.UncompressBlock(payload, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decompress data: %v", domain.ErrCorruptFile, err)
	}
	if uint64(n) != header.RawSize {
		return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", domain.ErrCorruptFile, n, header.RawSize)
	}
	return raw, nil
}
