// Package media chains source download, image transform and multipart
// upload into one pipeline behind the write-protection gate.
package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cms-mcp/strapi-mcp/internal/config"
	"github.com/cms-mcp/strapi-mcp/internal/outcome"
	"github.com/cms-mcp/strapi-mcp/internal/policy"
	"github.com/cms-mcp/strapi-mcp/internal/tools"
)

// Transformer re-encodes image bytes into a target format. Quality is only
// meaningful for lossy targets and is otherwise ignored.
type Transformer interface {
	Transform(data []byte, format string, quality int) ([]byte, error)
}

// Fetcher retrieves raw bytes from a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (data []byte, contentType string, err error)
}

// Uploader posts media bytes to a backend's upload endpoint.
type Uploader interface {
	Upload(ctx context.Context, profile config.Profile, filename string, data []byte, fileInfo map[string]any) outcome.Outcome
}

const uploadGuidance = "The response contains the backend-assigned file id and url. Link the uploaded asset to other records with a follow-up rest-call (e.g. PUT api/articles/1 with body data.cover = id)."

// Pipeline runs Authorizing -> Fetching -> Transforming -> Uploading, any
// stage's failure short-circuiting to a terminal outcome.
type Pipeline struct {
	fetcher     Fetcher
	uploader    Uploader
	transformer Transformer
	logger      zerolog.Logger
}

func NewPipeline(fetcher Fetcher, uploader Uploader, transformer Transformer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		uploader:    uploader,
		transformer: transformer,
		logger:      logger.With().Str("component", "media").Logger(),
	}
}

// UploadFromURL executes the pipeline. The authorization check runs before
// the source fetch: a rejected request must produce zero side effects,
// including zero outbound requests, so the order here is load-bearing.
func (p *Pipeline) UploadFromURL(ctx context.Context, profile config.Profile, req *tools.UploadMediaRequest) outcome.Outcome {
	if err := policy.RequireUploadAuthorization(req.Authorized); err != nil {
		return outcome.Authorization(err.Error())
	}

	data, contentType, err := p.fetcher.Fetch(ctx, req.SourceURL)
	if err != nil {
		return outcome.Transport(err.Error())
	}
	p.logger.Debug().Str("source", req.SourceURL).Int("bytes", len(data)).Str("content_type", contentType).Msg("fetched source media")

	filename := filenameFromURL(req.SourceURL)
	if req.Format != "original" {
		transformed, err := p.transformer.Transform(data, req.Format, req.Quality)
		if err != nil {
			return outcome.Internal(fmt.Errorf("transforming image to %s: %w", req.Format, err))
		}
		data = transformed
		filename = rewriteExtension(filename, req.Format)
	}

	res := p.uploader.Upload(ctx, profile, filename, data, fileInfo(req.Metadata))
	if res.Kind != outcome.KindSuccess {
		return res
	}
	res.Guidance = uploadGuidance
	return res
}

func fileInfo(meta *tools.MediaMetadata) map[string]any {
	if meta == nil {
		return nil
	}
	info := map[string]any{}
	if meta.Name != "" {
		info["name"] = meta.Name
	}
	if meta.Caption != "" {
		info["caption"] = meta.Caption
	}
	if meta.AltText != "" {
		info["alternativeText"] = meta.AltText
	}
	if meta.Description != "" {
		info["description"] = meta.Description
	}
	if len(info) == 0 {
		return nil
	}
	return info
}

func filenameFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return "upload"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}

// rewriteExtension replaces the filename extension to match the target
// format, so the backend's media library records the real encoding.
func rewriteExtension(filename, format string) string {
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(filename, path.Ext(filename))
	if base == "" {
		base = "upload"
	}
	return base + ext
}
