package spec

import "github.com/medflow/medflow-openapi/internal/scan"

// Inventory is a flat, sorted view of a document's operations, used for
// listing and filtering endpoints.

type Inventory struct {
	Title     string
	Version   string
	Servers   []string
	Tags      []string
	Endpoints []EndpointModel
	Schemas   []string // component schema names, sorted
}

type EndpointModel struct {
	ID          string // method+path
	Method      scan.HTTPMethod
	Path        string
	OperationID string
	Summary     string
	Tags        []string
	Parameters  []ParameterModel
	HasBody     bool
	Responses   []ResponseModel
}

type ParameterModel struct {
	Name     string
	In       string // path|query|header|cookie
	Required bool
}

type ResponseModel struct {
	Status      string // 200, 4xx, default
	Description string
	SchemaRef   string // $ref of the application/json schema, or of its items
}
