package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRecipe(t *testing.T, ts *testServer, token string, body map[string]any) RecipeDetail {
	t.Helper()

	resp := ts.api.Post("/api/v1/recipes", body, bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code, "Create failed: %s", resp.Body.String())

	var envelope testEnvelope[RecipeDetail]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func recipeBody(title string) map[string]any {
	return map[string]any{
		"title":        title,
		"time_minutes": 30,
		"price":        "5.00",
	}
}

func TestCreateRecipe_WithNestedAttrs(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	body := recipeBody("Avocado Lime Cheesecake")
	body["description"] = "No-bake dessert"
	body["tags"] = []map[string]any{{"name": "Vegan"}, {"name": "Dessert"}}
	body["ingredients"] = []map[string]any{{"name": "Avocado"}, {"name": "Lime"}}

	recipe := createRecipe(t, ts, token, body)

	assert.NotZero(t, recipe.ID)
	assert.Equal(t, "Avocado Lime Cheesecake", recipe.Title)
	assert.Equal(t, "No-bake dessert", recipe.Description)
	assert.Len(t, recipe.Tags, 2)
	assert.Len(t, recipe.Ingredients, 2)
}

func TestCreateRecipe_InvalidPrice(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	body := recipeBody("Bad Price")
	body["price"] = "1.999"

	resp := ts.api.Post("/api/v1/recipes", body, bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateRecipe_Unauthorized(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/recipes", recipeBody("No Auth"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListRecipes_NewestFirstWithoutDescription(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	body := recipeBody("First")
	body["description"] = "hidden in lists"
	first := createRecipe(t, ts, token, body)
	second := createRecipe(t, ts, token, recipeBody("Second"))

	resp := ts.api.Get("/api/v1/recipes", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListRecipesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	require.Len(t, envelope.Data.Recipes, 2)
	assert.Equal(t, second.ID, envelope.Data.Recipes[0].ID)
	assert.Equal(t, first.ID, envelope.Data.Recipes[1].ID)

	// The list representation carries no description field.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &raw))
	items := raw["data"].(map[string]any)["recipes"].([]any)
	assert.NotContains(t, items[1].(map[string]any), "description")
}

func TestGetRecipe_OwnershipIsolation(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)
	otherToken := ts.registerAndLogin(t, "other@test.com")

	recipe := createRecipe(t, ts, token, recipeBody("Private"))

	// Owner sees it.
	resp := ts.api.Get("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10), bearer(token))
	assert.Equal(t, http.StatusOK, resp.Code)

	// Another user gets 404, not 403.
	resp = ts.api.Get("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10), bearer(otherToken))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateRecipe_ReplacesAssociations(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	body := recipeBody("Pongal")
	body["tags"] = []map[string]any{{"name": "Breakfast"}}
	body["ingredients"] = []map[string]any{{"name": "Rice"}, {"name": "Lentils"}}
	recipe := createRecipe(t, ts, token, body)

	// PATCH with a new tag list and no ingredients key.
	resp := ts.api.Patch("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10),
		map[string]any{
			"title": "Festive Pongal",
			"tags":  []map[string]any{{"name": "Festival"}},
		},
		bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[RecipeDetail]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "Festive Pongal", envelope.Data.Title)
	require.Len(t, envelope.Data.Tags, 1)
	assert.Equal(t, "Festival", envelope.Data.Tags[0].Name)
	// Ingredients were cleared because the list was absent.
	assert.Empty(t, envelope.Data.Ingredients)
	// Untouched scalars survive.
	assert.Equal(t, "5.00", envelope.Data.Price)
}

func TestUpdateRecipe_EmptyTagListClears(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	body := recipeBody("Tagged")
	body["tags"] = []map[string]any{{"name": "Dinner"}}
	recipe := createRecipe(t, ts, token, body)

	resp := ts.api.Patch("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10),
		map[string]any{"tags": []map[string]any{}},
		bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecipeDetail]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Tags)

	// The tag record itself survives.
	resp = ts.api.Get("/api/v1/tags", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var tagsEnvelope testEnvelope[ListAttrsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tagsEnvelope))
	assert.Len(t, tagsEnvelope.Data.Items, 1)
}

func TestReplaceRecipe_Put(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	recipe := createRecipe(t, ts, token, recipeBody("Old"))

	resp := ts.api.Put("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10),
		map[string]any{
			"title":        "New",
			"time_minutes": 45,
			"price":        "9.50",
			"ingredients":  []map[string]any{{"name": "Salt"}},
		},
		bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[RecipeDetail]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "New", envelope.Data.Title)
	assert.Equal(t, 45, envelope.Data.TimeMinutes)
	assert.Equal(t, "9.50", envelope.Data.Price)
	require.Len(t, envelope.Data.Ingredients, 1)
}

func TestDeleteRecipe_KeepsAttrRecords(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	body := recipeBody("Doomed")
	body["tags"] = []map[string]any{{"name": "Dinner"}}
	recipe := createRecipe(t, ts, token, body)

	resp := ts.api.Delete("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10), bearer(token))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10), bearer(token))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/tags", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var tagsEnvelope testEnvelope[ListAttrsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tagsEnvelope))
	assert.Len(t, tagsEnvelope.Data.Items, 1)
}

// TestListRecipes_TagFilter exercises the at-most-one-per-ID filter: three
// recipes where two share a tag, filtered by one or both tag IDs.
func TestListRecipes_TagFilter(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	pongalBody := recipeBody("Pongal")
	pongalBody["tags"] = []map[string]any{{"name": "Indian"}}
	pongal := createRecipe(t, ts, token, pongalBody)

	dosaBody := recipeBody("Dosa")
	dosaBody["tags"] = []map[string]any{{"name": "Indian"}}
	createRecipe(t, ts, token, dosaBody)

	pastaBody := recipeBody("Pasta")
	pastaBody["tags"] = []map[string]any{{"name": "Italian"}}
	pasta := createRecipe(t, ts, token, pastaBody)

	indianID := pongal.Tags[0].ID
	italianID := pasta.Tags[0].ID

	// One tag requested: only the lowest-ID match comes back even though
	// two recipes carry the tag.
	resp := ts.api.Get("/api/v1/recipes?tags="+strconv.FormatInt(indianID, 10), bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListRecipesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Recipes, 1)
	assert.Equal(t, pongal.ID, envelope.Data.Recipes[0].ID)

	// Both tags requested: one pick per tag, newest first.
	resp = ts.api.Get("/api/v1/recipes?tags="+
		strconv.FormatInt(indianID, 10)+","+strconv.FormatInt(italianID, 10),
		bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Recipes, 2)
	assert.Equal(t, pasta.ID, envelope.Data.Recipes[0].ID)
	assert.Equal(t, pongal.ID, envelope.Data.Recipes[1].ID)
}

func TestListRecipes_IngredientFilterWithinTagSet(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	pongalBody := recipeBody("Pongal")
	pongalBody["tags"] = []map[string]any{{"name": "Indian"}}
	pongalBody["ingredients"] = []map[string]any{{"name": "Rice"}}
	pongal := createRecipe(t, ts, token, pongalBody)

	pastaBody := recipeBody("Pasta")
	pastaBody["tags"] = []map[string]any{{"name": "Italian"}}
	pastaBody["ingredients"] = []map[string]any{{"name": "Flour"}}
	pasta := createRecipe(t, ts, token, pastaBody)

	indianID := pongal.Tags[0].ID
	flourID := pasta.Ingredients[0].ID

	// The ingredient phase runs inside the tag-narrowed set: flour exists
	// but not on any Indian recipe.
	resp := ts.api.Get("/api/v1/recipes?tags="+strconv.FormatInt(indianID, 10)+
		"&ingredients="+strconv.FormatInt(flourID, 10),
		bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListRecipesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Recipes)
}

func TestListRecipes_InvalidFilterValue(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	resp := ts.api.Get("/api/v1/recipes?tags=abc", bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/api/v1/recipes?ingredients=1,xyz", bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func testJPEG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 90, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestUploadRecipeImage(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	recipe := createRecipe(t, ts, token, recipeBody("Photogenic"))

	resp := ts.api.Post("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10)+"/image",
		bytes.NewReader(testJPEG(t)),
		bearer(token),
		"Content-Type: image/jpeg")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[RecipeImageResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, recipe.ID, envelope.Data.ID)
	assert.NotEmpty(t, envelope.Data.ImagePath)
	assert.NotEmpty(t, envelope.Data.BlurHash)
}

func TestUploadRecipeImage_InvalidData(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	recipe := createRecipe(t, ts, token, recipeBody("Photogenic"))

	resp := ts.api.Post("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10)+"/image",
		bytes.NewReader([]byte("not an image")),
		bearer(token),
		"Content-Type: image/jpeg")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetRecipeImage_Streams(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	recipe := createRecipe(t, ts, token, recipeBody("Photogenic"))

	resp := ts.api.Post("/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10)+"/image",
		bytes.NewReader(testJPEG(t)),
		bearer(token),
		"Content-Type: image/jpeg")
	require.Equal(t, http.StatusOK, resp.Code)

	// The GET route streams through chi directly, so hit the router.
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10)+"/image", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestGetRecipeImage_NoImage(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	recipe := createRecipe(t, ts, token, recipeBody("Plain"))

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10)+"/image", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
