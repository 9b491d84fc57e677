package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type widget struct {
	base
	Name     string            `json:"name"`
	Price    int64             `json:"price"`
	Discount *int64            `json:"discount,omitempty"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Secret   string            `json:"-"`
	hidden   string
}

type widgetRequest struct {
	Name string `json:"name"`
}

func newTestGenerator() *Generator {
	g := NewGenerator(WithTitle("Test API"), WithVersion("2.0.0"), WithServer("http://localhost:8080"))
	g.RegisterRoute(RouteInfo{
		Method:      "POST",
		Path:        "/widgets",
		OperationID: "createWidget",
		Summary:     "Create a widget",
		Tag:         "Widgets",
		Request:     widgetRequest{},
		Response:    widget{},
		Status:      http.StatusCreated,
		Auth:        true,
	})
	g.RegisterRoute(RouteInfo{
		Method:      "GET",
		Path:        "/widgets/{id}",
		OperationID: "getWidget",
		Response:    widget{},
		Query:       []string{"expand"},
	})
	g.RegisterRoute(RouteInfo{
		Method:      "DELETE",
		Path:        "/widgets/{id}",
		OperationID: "deleteWidget",
		Status:      http.StatusNoContent,
	})
	return g
}

func TestGenerate_Info(t *testing.T) {
	spec := newTestGenerator().Generate()

	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "2.0.0", spec.Info.Version)
	require.Len(t, spec.Servers, 1)
	assert.Equal(t, "http://localhost:8080", spec.Servers[0].URL)
	assert.Contains(t, spec.Components.Schemas, "Error")
	assert.Contains(t, spec.Components.SecuritySchemes, "userHeader")
}

func TestGenerate_Operations(t *testing.T) {
	spec := newTestGenerator().Generate()

	create := spec.Paths.Value("/widgets").Post
	require.NotNil(t, create)
	assert.Equal(t, "createWidget", create.OperationID)
	assert.Equal(t, []string{"Widgets"}, create.Tags)
	require.NotNil(t, create.RequestBody)
	assert.NotNil(t, create.Responses.Value("201"))
	assert.NotNil(t, create.Responses.Value("default"))
	require.NotNil(t, create.Security)
	assert.Len(t, *create.Security, 1)

	item := spec.Paths.Value("/widgets/{id}")
	require.NotNil(t, item)
	require.Len(t, item.Parameters, 1)
	assert.Equal(t, "id", item.Parameters[0].Value.Name)
	assert.Equal(t, openapi3.ParameterInPath, item.Parameters[0].Value.In)

	require.NotNil(t, item.Get)
	require.Len(t, item.Get.Parameters, 1)
	assert.Equal(t, "expand", item.Get.Parameters[0].Value.Name)
	assert.NotNil(t, item.Get.Responses.Value("200"))
	assert.Nil(t, item.Get.Security)

	require.NotNil(t, item.Delete)
	assert.NotNil(t, item.Delete.Responses.Value("204"))
}

func TestGenerate_Schema(t *testing.T) {
	spec := newTestGenerator().Generate()

	ref, ok := spec.Components.Schemas["widget"]
	require.True(t, ok)
	props := ref.Value.Properties

	assert.Contains(t, props, "id", "embedded fields are flattened")
	assert.Equal(t, "date-time", props["created_at"].Value.Format)
	assert.Equal(t, "int64", props["price"].Value.Format)
	assert.True(t, props["discount"].Value.Nullable)
	assert.True(t, props["tags"].Value.Type.Is("array"))
	assert.True(t, props["labels"].Value.Type.Is("object"))
	assert.NotContains(t, props, "Secret")
	assert.NotContains(t, props, "hidden")
}

func TestGenerate_Cached(t *testing.T) {
	g := newTestGenerator()
	first := g.Generate()
	assert.Same(t, first, g.Generate())

	g.RegisterRoute(RouteInfo{Method: "GET", Path: "/other", OperationID: "other"})
	second := g.Generate()
	assert.NotSame(t, first, second)
	assert.NotNil(t, second.Paths.Value("/other"))
}

func TestHandler(t *testing.T) {
	g := newTestGenerator()

	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	assert.Contains(t, doc["paths"], "/widgets/{id}")
}

func TestGenerate_Validates(t *testing.T) {
	spec := newTestGenerator().Generate()
	loader := openapi3.NewLoader()
	data, err := json.Marshal(spec)
	require.NoError(t, err)

	doc, err := loader.LoadFromData(data)
	require.NoError(t, err)
	assert.NoError(t, doc.Validate(loader.Context))
}
