package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/recipebox/recipebox-server/internal/service"
)

// Tags and ingredients expose an identical surface, so both route sets are
// registered through the same parameterized helper.

func (s *Server) registerTagRoutes() {
	s.registerAttrRoutes(attrRouteSet{
		resource: "tags",
		singular: "Tag",
		plural:   "Tags",
		service:  s.services.Tag,
	})
}

func (s *Server) registerIngredientRoutes() {
	s.registerAttrRoutes(attrRouteSet{
		resource: "ingredients",
		singular: "Ingredient",
		plural:   "Ingredients",
		service:  s.services.Ingredient,
	})
}

type attrRouteSet struct {
	resource string
	singular string
	plural   string
	service  *service.AttrService
}

// === DTOs ===

// ListAttrsInput carries the auth header and the assigned_only flag.
type ListAttrsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  int    `query:"assigned_only" doc:"When 1, return only attributes attached to at least one recipe"`
}

// ListAttrsResponse contains the attribute list.
type ListAttrsResponse struct {
	Items []AttrResponse `json:"items" doc:"Attributes ordered by name, descending"`
}

// ListAttrsOutput wraps the list response for Huma.
type ListAttrsOutput struct {
	Body ListAttrsResponse
}

// AttrRequest is the request body for creating or renaming an attribute.
type AttrRequest struct {
	Name string `json:"name" doc:"Attribute name"`
}

// CreateAttrInput wraps the create request for Huma.
type CreateAttrInput struct {
	Authorization string `header:"Authorization"`
	Body          AttrRequest
}

// UpdateAttrInput wraps the rename request for Huma.
type UpdateAttrInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Attribute ID"`
	Body          AttrRequest
}

// DeleteAttrInput identifies one attribute.
type DeleteAttrInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Attribute ID"`
}

// AttrOutput wraps a single attribute response for Huma.
type AttrOutput struct {
	Body AttrResponse
}

// === Registration ===

func (s *Server) registerAttrRoutes(rs attrRouteSet) {
	huma.Register(s.api, huma.Operation{
		OperationID: "list" + rs.plural,
		Method:      http.MethodGet,
		Path:        "/api/v1/" + rs.resource,
		Summary:     "List " + rs.resource,
		Description: "Returns the user's " + rs.resource + " ordered by name, descending",
		Tags:        []string{rs.plural},
		Security:    []map[string][]string{{"bearer": {}}},
	}, func(ctx context.Context, input *ListAttrsInput) (*ListAttrsOutput, error) {
		userID, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		attrs, err := rs.service.List(ctx, userID, input.AssignedOnly != 0)
		if err != nil {
			return nil, err
		}

		return &ListAttrsOutput{Body: ListAttrsResponse{Items: mapAttrs(attrs)}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create" + rs.singular,
		Method:        http.MethodPost,
		Path:          "/api/v1/" + rs.resource,
		Summary:       "Create " + rs.singular,
		Description:   "Creates a new " + rs.singular + " owned by the user",
		Tags:          []string{rs.plural},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateAttrInput) (*AttrOutput, error) {
		userID, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		attr, err := rs.service.Create(ctx, userID, service.AttrRequest{Name: input.Body.Name})
		if err != nil {
			return nil, err
		}

		return &AttrOutput{Body: AttrResponse{ID: attr.ID, Name: attr.Name}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + rs.singular,
		Method:      http.MethodPatch,
		Path:        "/api/v1/" + rs.resource + "/{id}",
		Summary:     "Rename " + rs.singular,
		Description: "Renames a " + rs.singular,
		Tags:        []string{rs.plural},
		Security:    []map[string][]string{{"bearer": {}}},
	}, func(ctx context.Context, input *UpdateAttrInput) (*AttrOutput, error) {
		userID, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		attr, err := rs.service.Update(ctx, userID, input.ID, service.AttrRequest{Name: input.Body.Name})
		if err != nil {
			return nil, err
		}

		return &AttrOutput{Body: AttrResponse{ID: attr.ID, Name: attr.Name}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete" + rs.singular,
		Method:      http.MethodDelete,
		Path:        "/api/v1/" + rs.resource + "/{id}",
		Summary:     "Delete " + rs.singular,
		Description: "Deletes a " + rs.singular + " and detaches it from all recipes",
		Tags:        []string{rs.plural},
		Security:    []map[string][]string{{"bearer": {}}},
	}, func(ctx context.Context, input *DeleteAttrInput) (*MessageOutput, error) {
		userID, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		if err := rs.service.Delete(ctx, userID, input.ID); err != nil {
			return nil, err
		}

		return &MessageOutput{Body: MessageResponse{Message: rs.singular + " deleted"}}, nil
	})
}
