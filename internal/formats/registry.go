package formats

import (
	"github.com/dgallion1/xmlsift/internal/handler"
)

// Builtin returns the built-in handlers in priority order, most specific
// first.
func Builtin(s Settings) []handler.Handler {
	if s == nil {
		s = DefaultSettings()
	}
	return []handler.Handler{
		NewSCAP(s),
		NewXCCDF(s),
		NewOVAL(s),
		NewMavenPOM(s),
		NewAntBuild(s),
		NewLog4j(s),
		NewSpring(s),
		NewSOAP(s),
		NewWSDL(s),
		NewXSD(s),
		NewSVG(s),
		NewKML(s),
		NewSitemap(s),
		NewFeed(s),
		NewDocBook(s),
		NewRecords(s),
	}
}

// DefaultRegistry builds the registry of built-in handlers with the generic
// handler as fallback.
func DefaultRegistry(s Settings) (*handler.Registry, error) {
	return handler.NewRegistry(NewGeneric(), Builtin(s)...)
}
