package validation

// ToggleFavoriteRequest mirrors the fields of the favorite toggle endpoint.
type ToggleFavoriteRequest struct {
	RecipeID string
	Action   string
}

// ValidateToggleFavoriteRequest validates a favorite toggle request. Action
// must be exactly "add" or "remove".
func ValidateToggleFavoriteRequest(req ToggleFavoriteRequest) []FieldError {
	var errs []FieldError

	if req.RecipeID == "" {
		errs = append(errs, FieldError{Field: "recipeId", Message: "recipeId is required"})
	}
	switch req.Action {
	case "":
		errs = append(errs, FieldError{Field: "action", Message: "action is required"})
	case "add", "remove":
	default:
		errs = append(errs, FieldError{Field: "action", Message: `action must be "add" or "remove"`})
	}

	return errs
}
