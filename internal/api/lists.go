package api

import (
	"context"
	"net/http"

	"spinlog/internal/models"
)

// CreateListRequest is the body for POST /list.
type CreateListRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// ItemPosition assigns a position to one list item.
type ItemPosition struct {
	ID       models.ID `json:"id"`
	Position int       `json:"position"`
}

type reorderBody struct {
	Items []ItemPosition `json:"items"`
}

// Lists returns the user's lists.
func (c *Client) Lists(ctx context.Context, userID string) ([]models.List, error) {
	return decodeList[models.List](ctx, c, call{
		op:         "list.list",
		method:     http.MethodGet,
		path:       "/list/user/{userId}",
		pathParams: map[string]string{"userId": userID},
	})
}

// CreateList creates an empty list.
func (c *Client) CreateList(ctx context.Context, req CreateListRequest) (*models.List, error) {
	return decodeOne[models.List](ctx, c, call{
		op:     "list.create",
		method: http.MethodPost,
		path:   "/list",
		body:   req,
	})
}

// ReorderList persists the positions of every item in a list.
func (c *Client) ReorderList(ctx context.Context, listID models.ID, items []ItemPosition) (*models.List, error) {
	return decodeOne[models.List](ctx, c, call{
		op:         "list.reorder",
		method:     http.MethodPut,
		path:       "/list/{listId}/items",
		pathParams: map[string]string{"listId": listID.String()},
		body:       reorderBody{Items: items},
	})
}
