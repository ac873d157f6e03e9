package store

import "errors"

var (
	ErrNotFound      = errors.New("recipe not found")
	ErrInvalidRecipe = errors.New("invalid recipe")
)
