package loader

import (
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
)

// loaderBackend converts the bytes of one model format into an ImportedModel.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Extensions lists the lower-case file extensions, with leading dot, this backend reads.
	//
	// Returns:
	//   - []string: the extensions
	Extensions() []string

	// Import decodes a model.
	//
	// Parameters:
	//   - data: the model file contents
	//   - source: the path or URL the data came from
	//   - resolve: fetches resources the model references relative to source
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if decoding fails
	Import(data []byte, source string, resolve uriResolver) (*model.ImportedModel, error)
}
