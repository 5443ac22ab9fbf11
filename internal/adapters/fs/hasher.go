package fs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Hasher = (*Hasher)(nil)

// missingMarker stands in for the content hash of a depfile header that no longer exists.
const missingMarker = "missing"

// Hasher computes node fingerprints from node definitions and file contents.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrFileHashFailed, err.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrFileHashFailed, err.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeFingerprint computes a single hash over the node definition, its input files,
// and the headers listed in its depfile.
func (h *Hasher) ComputeFingerprint(node *domain.Node, root string) (string, error) {
	hasher := xxhash.New()

	h.hashNodeDefinition(node, hasher)
	h.hashEnvironment(node.Action.Env, hasher)

	if err := h.hashFiles(root, node.InputStrings(), hasher); err != nil {
		return "", err
	}

	headers, err := h.readDepfile(root, node)
	if err != nil {
		return "", err
	}
	h.hashHeaders(root, headers, hasher)

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashNodeDefinition hashes the node's kind, command line, and outputs.
func (h *Hasher) hashNodeDefinition(node *domain.Node, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(string(node.Kind))
	_, _ = hasher.Write([]byte{0})

	for _, arg := range node.Action.Argv {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	for _, output := range node.Outputs {
		_, _ = hasher.WriteString(output.String())
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

// hashEnvironment hashes extra process environment entries in a deterministic order.
func (h *Hasher) hashEnvironment(env map[string]string, hasher *xxhash.Digest) {
	for _, k := range slices.Sorted(maps.Keys(env)) {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(env[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

type fileDigest struct {
	path string
	sum  uint64
}

// hashFiles hashes input files concurrently and folds them into hasher in input order.
// Directory inputs contribute every file below them.
func (h *Hasher) hashFiles(root string, inputs []string, hasher io.Writer) error {
	digests := make([][]fileDigest, len(inputs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, input := range inputs {
		g.Go(func() error {
			d, err := h.hashPath(absPath(root, input))
			digests[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, input := range inputs {
		_, _ = hasher.Write([]byte(input))
		_, _ = hasher.Write([]byte{0})
		for _, d := range digests[i] {
			_, _ = hasher.Write([]byte(d.path))
			_, _ = hasher.Write([]byte{0})
			if err := binary.Write(hasher, binary.LittleEndian, d.sum); err != nil {
				return zerr.Wrap(err, "failed to write hash to digest")
			}
		}
	}
	return nil
}

func (h *Hasher) hashPath(path string) ([]fileDigest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileHashFailed, err.Error()), "path", path)
	}

	if !info.IsDir() {
		sum, err := h.ComputeFileHash(path)
		if err != nil {
			return nil, err
		}
		return []fileDigest{{sum: sum}}, nil
	}

	var digests []fileDigest
	for file := range h.walker.WalkFiles(path, nil) {
		sum, err := h.ComputeFileHash(file)
		if err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(path, file)
		digests = append(digests, fileDigest{path: filepath.ToSlash(rel), sum: sum})
	}
	return digests, nil
}

// hashHeaders hashes depfile headers. A header that cannot be read is hashed as missing
// so the fingerprint changes instead of failing.
func (h *Hasher) hashHeaders(root string, headers []string, hasher io.Writer) {
	for _, header := range headers {
		_, _ = hasher.Write([]byte(header))
		_, _ = hasher.Write([]byte{0})
		sum, err := h.ComputeFileHash(absPath(root, header))
		if err != nil {
			_, _ = hasher.Write([]byte(missingMarker))
			continue
		}
		_ = binary.Write(hasher, binary.LittleEndian, sum)
	}
}

// readDepfile returns the prerequisites listed in the node's depfile, excluding its declared inputs.
// A node without a depfile, or whose depfile has not been written yet, has no headers.
func (h *Hasher) readDepfile(root string, node *domain.Node) ([]string, error) {
	if node.Action.Depfile == "" {
		return nil, nil
	}
	path := absPath(root, node.Action.Depfile)
	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileHashFailed, err.Error()), "path", path)
	}

	inputs := node.InputStrings()
	var headers []string
	for _, prereq := range ParseDepfile(data) {
		if !slices.Contains(inputs, prereq) {
			headers = append(headers, prereq)
		}
	}
	slices.Sort(headers)
	return slices.Compact(headers), nil
}

// ParseDepfile returns the prerequisites of a make-style dependency file as written by
// `cc -MMD -MF`. Phony targets emitted with -MP are ignored.
func ParseDepfile(data []byte) []string {
	data = bytes.ReplaceAll(data, []byte("\\\r\n"), []byte(" "))
	data = bytes.ReplaceAll(data, []byte("\\\n"), []byte(" "))

	var prereqs []string
	for line := range strings.Lines(string(data)) {
		_, rest, ok := cutRule(line)
		if !ok {
			continue
		}
		for _, field := range splitEscaped(rest) {
			if !slices.Contains(prereqs, field) {
				prereqs = append(prereqs, field)
			}
		}
	}
	return prereqs
}

// cutRule splits a rule line at the target separator. A colon followed by a path separator
// belongs to a Windows drive letter.
func cutRule(line string) (target, prereqs string, ok bool) {
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		if i+1 < len(line) && (line[i+1] == '\\' || line[i+1] == '/') {
			continue
		}
		return line[:i], line[i+1:], true
	}
	return "", "", false
}

// splitEscaped splits on whitespace, honouring backslash-escaped spaces.
func splitEscaped(s string) []string {
	var fields []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s) && s[i+1] == ' ':
			cur.WriteByte(' ')
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return fields
}

func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
