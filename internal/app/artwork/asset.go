package artwork

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// DefaultExtensions are tried in order when an asset name has no extension.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".svg"}

// AssetResolver loads bundled artwork from a directory.
type AssetResolver struct {
	fs         afero.Fs
	dir        string
	extensions []string
}

// NewAssetResolver creates a resolver reading named assets from dir on fs.
func NewAssetResolver(fs afero.Fs, dir string) *AssetResolver {
	return &AssetResolver{
		fs:         fs,
		dir:        dir,
		extensions: DefaultExtensions,
	}
}

// Resolve loads the asset named by ref.
func (r *AssetResolver) Resolve(ctx context.Context, ref *track.ArtworkRef) (Image, error) {
	if ref == nil || ref.Kind != track.ArtworkLocal {
		return Image{}, errors.Newf("asset resolver cannot load %s", ref)
	}
	name := ref.Value
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return Image{}, errors.Newf("invalid asset name %q", name)
	}

	for _, candidate := range r.candidates(name) {
		if err := ctx.Err(); err != nil {
			return Image{}, err
		}
		data, err := afero.ReadFile(r.fs, filepath.Join(r.dir, candidate))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Image{}, errors.Wrapf(err, "failed to read asset %s", candidate)
		}
		return Image{
			Ref:         ref,
			ContentType: contentType(candidate, data),
			Data:        data,
		}, nil
	}
	return Image{}, errors.Wrapf(ErrNotFound, "asset %s", name)
}

func (r *AssetResolver) candidates(name string) []string {
	if path.Ext(name) != "" {
		return []string{name}
	}
	out := make([]string, 0, len(r.extensions))
	for _, ext := range r.extensions {
		out = append(out, name+ext)
	}
	return out
}

// contentType prefers the extension's registered type and sniffs otherwise.
func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
