package workspace

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Gantry/core/digest"
	"github.com/FocuswithJustin/Gantry/core/errors"
)

// Compression specifies the compression algorithm for snapshot archives.
type Compression string

const (
	// CompressionXZ uses XZ/LZMA2 compression (default, best ratio).
	CompressionXZ Compression = "xz"
	// CompressionGzip uses gzip compression (stdlib, faster).
	CompressionGzip Compression = "gzip"
)

const (
	manifestName = "manifest.json"
	documentName = "workspace.xml"
)

// SnapshotOptions configures snapshot export behavior.
type SnapshotOptions struct {
	// Compression specifies the compression algorithm. Defaults to XZ.
	Compression Compression
}

// DefaultSnapshotOptions returns the default export options (XZ compression).
func DefaultSnapshotOptions() *SnapshotOptions {
	return &SnapshotOptions{
		Compression: CompressionXZ,
	}
}

// SnapshotManifest describes the archived document.
type SnapshotManifest struct {
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	ConfigCount int       `json:"config_count"`
}

// Snapshot is the content of an exported snapshot archive.
type Snapshot struct {
	Manifest SnapshotManifest
	Document []byte
}

// ExportSnapshot writes a snapshot archive of the workspace document to out.
// The archive is a tar holding the snapshot manifest and the serialized
// document, compressed per opts (nil selects the defaults).
func (w *Workspace) ExportSnapshot(out io.Writer, opts *SnapshotOptions) error {
	if opts == nil {
		opts = DefaultSnapshotOptions()
	}

	data, err := w.render()
	if err != nil {
		return err
	}

	var compressWriter io.WriteCloser
	switch opts.Compression {
	case CompressionGzip:
		compressWriter, err = gzip.NewWriterLevel(out, gzip.BestCompression)
		if err != nil {
			return fmt.Errorf("failed to create gzip writer: %w", err)
		}
	case CompressionXZ:
		fallthrough
	default:
		compressWriter, err = xz.NewWriter(out)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
	}

	tarWriter := tar.NewWriter(compressWriter)

	manifest := SnapshotManifest{
		Fingerprint: digest.Sum(data),
		CreatedAt:   time.Now().UTC(),
		ConfigCount: len(w.manager.List()),
	}
	manifestData, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}

	if err := writeToTar(tarWriter, manifestName, manifestData); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := writeToTar(tarWriter, documentName, data); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	// Close in order so the compressor flushes after the tar trailer.
	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := compressWriter.Close(); err != nil {
		return fmt.Errorf("failed to close compression writer: %w", err)
	}
	return nil
}

// DetectCompression detects the compression type of a snapshot archive
// from its magic bytes.
func DetectCompression(path string) (Compression, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.NewIO("open", path, err)
	}
	defer file.Close()

	magic := make([]byte, 6)
	n, err := file.Read(magic)
	if err != nil {
		return "", errors.NewIO("read magic bytes", path, err)
	}
	if n < 2 {
		return "", errors.NewValidation("snapshot", "file too small to detect compression")
	}

	// Gzip magic (1f 8b)
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return CompressionGzip, nil
	}

	// XZ magic (fd 37 7a 58 5a 00)
	if n >= 6 && magic[0] == 0xfd && magic[1] == 0x37 && magic[2] == 0x7a &&
		magic[3] == 0x58 && magic[4] == 0x5a && magic[5] == 0x00 {
		return CompressionXZ, nil
	}

	return "", errors.NewUnsupported("compression format", "unknown magic bytes")
}

// OpenSnapshot reads a snapshot archive, auto-detecting its compression.
func OpenSnapshot(path string) (*Snapshot, error) {
	compression, err := DetectCompression(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	var decompressReader io.Reader
	switch compression {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		decompressReader = gzReader
	case CompressionXZ:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		decompressReader = xzReader
	default:
		return nil, fmt.Errorf("unsupported compression: %s", compression)
	}

	tarReader := tar.NewReader(decompressReader)

	var snap Snapshot
	var haveManifest, haveDocument bool
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}

		switch header.Name {
		case manifestName:
			data, err := io.ReadAll(tarReader)
			if err != nil {
				return nil, fmt.Errorf("failed to read manifest: %w", err)
			}
			if err := json.Unmarshal(data, &snap.Manifest); err != nil {
				return nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
			haveManifest = true
		case documentName:
			data, err := io.ReadAll(tarReader)
			if err != nil {
				return nil, fmt.Errorf("failed to read document: %w", err)
			}
			snap.Document = data
			haveDocument = true
		}
	}

	if !haveManifest {
		return nil, fmt.Errorf("snapshot does not contain %s", manifestName)
	}
	if !haveDocument {
		return nil, fmt.Errorf("snapshot does not contain %s", documentName)
	}
	return &snap, nil
}

// writeToTar writes a file entry to the tar archive.
func writeToTar(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
