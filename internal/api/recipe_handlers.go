package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the user's recipes, newest first, optionally filtered by tag and ingredient IDs",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a recipe with optional nested tag and ingredient names",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe with its tags, ingredients, and image info",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Partially updates scalar fields; tag and ingredient lists always replace the current associations",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Full update with the same association replacement semantics as PATCH",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe; tag and ingredient records survive",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadRecipeImage",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/image",
		Summary:     "Upload recipe image",
		Description: "Uploads a JPEG, PNG, or WebP image for a recipe",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadRecipeImage)

	// Direct chi route for image streaming.
	s.router.Get("/api/v1/recipes/{id}/image", s.handleGetRecipeImage)
}

// === DTOs ===

// AttrRef is a tag or ingredient name in a recipe payload.
type AttrRef struct {
	Name string `json:"name" doc:"Attribute name"`
}

// AttrResponse contains a tag or ingredient in API responses.
type AttrResponse struct {
	ID   int64  `json:"id" doc:"Attribute ID"`
	Name string `json:"name" doc:"Attribute name"`
}

// RecipeSummary is the list representation of a recipe (no description).
type RecipeSummary struct {
	ID          int64          `json:"id" doc:"Recipe ID"`
	Title       string         `json:"title" doc:"Recipe title"`
	TimeMinutes int            `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string         `json:"price" doc:"Price as a decimal string"`
	Link        string         `json:"link,omitempty" doc:"External link"`
	Tags        []AttrResponse `json:"tags" doc:"Attached tags"`
	Ingredients []AttrResponse `json:"ingredients" doc:"Attached ingredients"`
}

// RecipeDetail is the detail representation of a recipe.
type RecipeDetail struct {
	RecipeSummary
	Description string `json:"description,omitempty" doc:"Recipe description"`
	ImagePath   string `json:"image_path,omitempty" doc:"Stored image filename"`
	BlurHash    string `json:"blur_hash,omitempty" doc:"BlurHash of the image"`
}

// ListRecipesInput carries the auth header and filter parameters.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs to filter by"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs to filter by"`
}

// ListRecipesResponse contains the recipe list.
type ListRecipesResponse struct {
	Recipes []RecipeSummary `json:"recipes" doc:"Recipes, newest first"`
}

// ListRecipesOutput wraps the list response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Title       string    `json:"title" doc:"Recipe title"`
	TimeMinutes int       `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string    `json:"price" doc:"Price as a decimal string, max two fractional digits"`
	Link        string    `json:"link,omitempty" doc:"External link"`
	Description string    `json:"description,omitempty" doc:"Recipe description"`
	Tags        []AttrRef `json:"tags,omitempty" doc:"Tag names to attach (created if missing)"`
	Ingredients []AttrRef `json:"ingredients,omitempty" doc:"Ingredient names to attach (created if missing)"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateRecipeRequest
}

// RecipeOutput wraps a recipe detail response for Huma.
type RecipeOutput struct {
	Body RecipeDetail
}

// GetRecipeInput identifies one recipe.
type GetRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeRequest is the request body for updating a recipe.
// Omitted scalar fields are left unchanged; tag and ingredient lists
// always replace the current associations (absent list = clear).
type UpdateRecipeRequest struct {
	Title       *string   `json:"title,omitempty" doc:"Recipe title"`
	TimeMinutes *int      `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *string   `json:"price,omitempty" doc:"Price as a decimal string"`
	Link        *string   `json:"link,omitempty" doc:"External link"`
	Description *string   `json:"description,omitempty" doc:"Recipe description"`
	Tags        []AttrRef `json:"tags,omitempty" doc:"Replacement tag names"`
	Ingredients []AttrRef `json:"ingredients,omitempty" doc:"Replacement ingredient names"`
}

// UpdateRecipeInput wraps the update request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeRequest
}

// UploadRecipeImageInput carries raw image bytes.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
	RawBody       []byte
}

// RecipeImageResponse describes a stored recipe image.
type RecipeImageResponse struct {
	ID        int64  `json:"id" doc:"Recipe ID"`
	ImagePath string `json:"image_path" doc:"Stored image filename"`
	BlurHash  string `json:"blur_hash" doc:"BlurHash of the image"`
}

// RecipeImageOutput wraps the image response for Huma.
type RecipeImageOutput struct {
	Body RecipeImageResponse
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, userID, service.ListFilter{
		Tags:        input.Tags,
		Ingredients: input.Ingredients,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summaries = append(summaries, mapRecipeSummary(r))
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: summaries}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, userID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        mapAttrInputs(input.Body.Tags),
		Ingredients: mapAttrInputs(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *GetRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Update(ctx, userID, input.ID, service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        mapAttrInputs(input.Body.Tags),
		Ingredients: mapAttrInputs(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *GetRecipeInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeImageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, userID, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &RecipeImageOutput{
		Body: RecipeImageResponse{
			ID:        recipe.ID,
			ImagePath: recipe.ImagePath,
			BlurHash:  recipe.BlurHash,
		},
	}, nil
}

// handleGetRecipeImage streams the stored image directly, bypassing huma.
func (s *Server) handleGetRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.authenticateRequest(ctx, r.Header.Get("Authorization"))
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		return
	}

	recipeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION", "invalid recipe ID")
		return
	}

	data, contentType, err := s.services.Recipe.GetImage(ctx, userID, recipeID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "recipe image not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// writeError writes an error envelope on routes that bypass huma.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, &Envelope{
		Success: false,
		Error:   &ErrorPayload{Code: code, Message: message},
	})
}

// === Helpers ===

func mapAttrInputs(refs []AttrRef) []service.AttrInput {
	if len(refs) == 0 {
		return nil
	}
	inputs := make([]service.AttrInput, 0, len(refs))
	for _, ref := range refs {
		inputs = append(inputs, service.AttrInput{Name: ref.Name})
	}
	return inputs
}

func mapAttrs(attrs []*domain.RecipeAttr) []AttrResponse {
	out := make([]AttrResponse, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, AttrResponse{ID: a.ID, Name: a.Name})
	}
	return out
}

func mapRecipeSummary(r *domain.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        mapAttrs(r.Tags),
		Ingredients: mapAttrs(r.Ingredients),
	}
}

func mapRecipeDetail(r *domain.Recipe) RecipeDetail {
	return RecipeDetail{
		RecipeSummary: mapRecipeSummary(r),
		Description:   r.Description,
		ImagePath:     r.ImagePath,
		BlurHash:      r.BlurHash,
	}
}
