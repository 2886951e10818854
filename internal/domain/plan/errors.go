package plan

import "errors"

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrInvalidPrice  = errors.New("invalid plan price")
	ErrEmptyCatalog  = errors.New("plan catalog is empty")
	ErrDuplicatePlan = errors.New("duplicate plan in catalog")
)
