// Package translate serialises a structured query into the representations brokers consume.
// Structured query JSON is passed through; CQL and FHIR search come from remote translation services.
package translate

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"
)

var (
	ErrTranslationUnavailable = errs.New("no translator configured for media type")
	ErrTranslationFailed      = errs.New("query translation failed")
)

type Translator struct {
	client    *http.Client
	endpoints map[query.MediaType]string
	logger    *slog.Logger
}

func NewTranslator(cfg config.TranslateConfig, logger *slog.Logger) *Translator {
	endpoints := make(map[query.MediaType]string)
	if cfg.CQLURL != "" {
		endpoints[query.MediaCQL] = cfg.CQLURL
	}
	if cfg.FHIRSearchURL != "" {
		endpoints[query.MediaFHIRSearch] = cfg.FHIRSearchURL
	}
	return &Translator{
		client:    &http.Client{Timeout: cfg.Timeout},
		endpoints: endpoints,
		logger:    logger,
	}
}

// Translate returns one serialised form per requested media type. It fails as a whole if any form is missing.
func (t *Translator) Translate(ctx context.Context, content query.Content, mediaTypes []query.MediaType) (map[query.MediaType]string, error) {
	out := make(map[query.MediaType]string, len(mediaTypes))
	for _, mt := range mediaTypes {
		if _, done := out[mt]; done {
			continue
		}
		if mt == query.MediaStructuredQuery {
			out[mt] = string(content.Raw())
			continue
		}
		s, err := t.remote(ctx, mt, content)
		if err != nil {
			return nil, err
		}
		out[mt] = s
	}
	return out, nil
}

func (t *Translator) remote(ctx context.Context, mt query.MediaType, content query.Content) (string, error) {
	endpoint, ok := t.endpoints[mt]
	if !ok {
		return "", errs.Wrapf(ErrTranslationUnavailable, "%s", mt)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content.Raw()))
	if err != nil {
		return "", errs.Wrap(err, "failed to build translation request")
	}
	req.Header.Set("Content-Type", string(query.MediaStructuredQuery))
	req.Header.Set("Accept", string(mt))

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("translation service unreachable", "media_type", string(mt), "error", err.Error())
		return "", errs.Mark(errs.Wrapf(err, "translate to %s", mt), ErrTranslationFailed)
	}
	body, err := broker.ReadSuccess(resp, "translate to "+string(mt))
	if err != nil {
		return "", errs.Mark(err, ErrTranslationFailed)
	}
	return string(body), nil
}
