package converter

import "github.com/convsuite/convsuite/internal/backend"

// NewDefaultRegistry wires the five built-in converters against the
// given backends. Registration order is lookup priority: specific
// categories (presentation) come before broad ones (document) so
// overlapping format pairs resolve to the more specific converter.
func NewDefaultRegistry(ffmpeg *backend.FFmpeg, pandoc *backend.Pandoc, office *backend.Soffice) *Registry {
	registry := NewRegistry()
	registry.Register(NewImageConverter())
	registry.Register(NewVideoConverter(ffmpeg))
	registry.Register(NewAudioConverter(ffmpeg))
	registry.Register(NewPresentationConverter(office))
	registry.Register(NewDocumentConverter(pandoc, office))
	return registry
}
