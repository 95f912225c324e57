package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

const (
	// CurrentFileName is the pointer blob naming the active version of a model.
	CurrentFileName = "CURRENT"

	modelPrefix      = "models/"
	artifactFileExt  = ".qnt"
	versionNameWidth = 8
)

// Options contains options for a registry.
type Options struct {
	// Compression applied to saved artifacts.
	Compression CompressionType
}

// DefaultOptions are the default registry options.
var DefaultOptions = Options{
	Compression: CompressionZSTD,
}

// Registry stores versioned artifacts in a blob store. Each model keeps its
// versions under models/<name>/ together with a CURRENT pointer blob naming
// the active version file, so readers never observe a half-written artifact.
//
// Save is last-writer-wins on the CURRENT pointer. Stores that support
// conditional writes (see the s3 subpackage) make the pointer swap atomic
// across concurrent writers.
type Registry struct {
	store BlobStore
	opts  Options
}

// NewRegistry creates a registry on top of the given blob store.
func NewRegistry(store BlobStore, optFns ...func(o *Options)) *Registry {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		store: store,
		opts:  opts,
	}
}

// Save encodes the artifact as the next version of the named model and moves
// the CURRENT pointer to it. It returns the new version number.
func (r *Registry) Save(ctx context.Context, name string, a *Artifact) (int, error) {
	if err := validateModelName(name); err != nil {
		return 0, err
	}

	versions, err := r.Versions(ctx, name)
	if err != nil {
		return 0, err
	}

	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	data, err := Encode(a, r.opts.Compression)
	if err != nil {
		return 0, err
	}

	filename := versionFileName(next)

	if err := r.store.Put(ctx, path.Join(modelDir(name), filename), data); err != nil {
		return 0, err
	}

	if err := r.store.Put(ctx, path.Join(modelDir(name), CurrentFileName), []byte(filename)); err != nil {
		return 0, err
	}

	return next, nil
}

// Load decodes the current version of the named model.
func (r *Registry) Load(ctx context.Context, name string) (*Artifact, error) {
	if err := validateModelName(name); err != nil {
		return nil, err
	}

	current, err := r.Current(ctx, name)
	if err != nil {
		return nil, err
	}

	return r.LoadVersion(ctx, name, current)
}

// LoadVersion decodes a specific version of the named model.
func (r *Registry) LoadVersion(ctx context.Context, name string, version int) (*Artifact, error) {
	if err := validateModelName(name); err != nil {
		return nil, err
	}

	blob, err := r.store.Open(ctx, path.Join(modelDir(name), versionFileName(version)))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := ReadAll(blob)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// Current returns the version number the CURRENT pointer refers to.
func (r *Registry) Current(ctx context.Context, name string) (int, error) {
	if err := validateModelName(name); err != nil {
		return 0, err
	}

	blob, err := r.store.Open(ctx, path.Join(modelDir(name), CurrentFileName))
	if err != nil {
		return 0, err
	}
	defer blob.Close()

	content, err := ReadAll(blob)
	if err != nil {
		return 0, err
	}

	version, ok := parseVersionFileName(strings.TrimSpace(string(content)))
	if !ok {
		return 0, fmt.Errorf("malformed CURRENT pointer for model %q: %q", name, content)
	}

	return version, nil
}

// Versions lists the stored versions of the named model in ascending order.
func (r *Registry) Versions(ctx context.Context, name string) ([]int, error) {
	if err := validateModelName(name); err != nil {
		return nil, err
	}

	names, err := r.store.List(ctx, modelDir(name)+"/")
	if err != nil {
		return nil, err
	}

	var versions []int

	for _, n := range names {
		if version, ok := parseVersionFileName(path.Base(n)); ok {
			versions = append(versions, version)
		}
	}

	sort.Ints(versions)

	return versions, nil
}

// DeleteVersion removes a stored version. The current version cannot be
// deleted while the CURRENT pointer refers to it.
func (r *Registry) DeleteVersion(ctx context.Context, name string, version int) error {
	if err := validateModelName(name); err != nil {
		return err
	}

	current, err := r.Current(ctx, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if err == nil && current == version {
		return fmt.Errorf("version %d is the current version of model %q", version, name)
	}

	return r.store.Delete(ctx, path.Join(modelDir(name), versionFileName(version)))
}

// Models lists the model names that have at least one stored blob.
func (r *Registry) Models(ctx context.Context) ([]string, error) {
	names, err := r.store.List(ctx, modelPrefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var models []string

	for _, n := range names {
		rest := strings.TrimPrefix(n, modelPrefix)

		i := strings.IndexByte(rest, '/')
		if i <= 0 {
			continue
		}

		model := rest[:i]
		if _, ok := seen[model]; ok {
			continue
		}

		seen[model] = struct{}{}

		models = append(models, model)
	}

	sort.Strings(models)

	return models, nil
}

func modelDir(name string) string {
	return modelPrefix + name
}

func versionFileName(version int) string {
	return fmt.Sprintf("v%0*d%s", versionNameWidth, version, artifactFileExt)
}

func parseVersionFileName(filename string) (int, bool) {
	if !strings.HasPrefix(filename, "v") || !strings.HasSuffix(filename, artifactFileExt) {
		return 0, false
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(filename, "v"), artifactFileExt)
	if len(digits) != versionNameWidth {
		return 0, false
	}

	version, err := strconv.Atoi(digits)
	if err != nil || version < 1 {
		return 0, false
	}

	return version, true
}

func validateModelName(name string) error {
	if name == "" {
		return errors.New("model name must not be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("model name %q must not contain path separators", name)
	}

	return nil
}
