package core

import "fmt"

// SchemaError reports an input table missing a required column or carrying
// the wrong type. Fatal at load; no partial run is attempted.
type SchemaError struct {
	Table string
	Rule  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %q: %s", e.Table, e.Rule)
}

// NewSchemaError builds a SchemaError naming the offending table and the
// violated rule.
func NewSchemaError(table, rule string) error {
	return &SchemaError{Table: table, Rule: rule}
}

// IsSchemaError reports whether err is a *SchemaError.
func IsSchemaError(err error) bool {
	_, ok := err.(*SchemaError)
	return ok
}

// ReferentialError reports a game referencing a team absent from the
// roster, or a winning team that is neither the home nor visiting side.
type ReferentialError struct {
	GameID GameID
	Rule   string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referential error on game %d: %s", e.GameID, e.Rule)
}

func NewReferentialError(gameID GameID, rule string) error {
	return &ReferentialError{GameID: gameID, Rule: rule}
}

func IsReferentialError(err error) bool {
	_, ok := err.(*ReferentialError)
	return ok
}

// OrderError reports completed games out of monotonic game_id order, or a
// schedule game_id already present among completed games.
type OrderError struct {
	GameID GameID
	Rule   string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order error at game %d: %s", e.GameID, e.Rule)
}

func NewOrderError(gameID GameID, rule string) error {
	return &OrderError{GameID: gameID, Rule: rule}
}

func IsOrderError(err error) bool {
	_, ok := err.(*OrderError)
	return ok
}

// MissingRatingError reports a team with no initial rating encountered
// during rollforward.
type MissingRatingError struct {
	Team TeamIndex
}

func (e *MissingRatingError) Error() string {
	return fmt.Sprintf("missing rating error: no initial rating for team index %d", e.Team)
}

func NewMissingRatingError(team TeamIndex) error {
	return &MissingRatingError{Team: team}
}

func IsMissingRatingError(err error) bool {
	_, ok := err.(*MissingRatingError)
	return ok
}

// CalibrationVersionMismatchError reports a calibration artifact whose
// schema/version does not match the running model.
type CalibrationVersionMismatchError struct {
	Expected string
	Actual   string
}

func (e *CalibrationVersionMismatchError) Error() string {
	return fmt.Sprintf("calibration version mismatch: expected %q, got %q", e.Expected, e.Actual)
}

func NewCalibrationVersionMismatchError(expected, actual string) error {
	return &CalibrationVersionMismatchError{Expected: expected, Actual: actual}
}

func IsCalibrationVersionMismatchError(err error) bool {
	_, ok := err.(*CalibrationVersionMismatchError)
	return ok
}

// NumericRangeError reports a computed probability or rating that escaped
// its valid range beyond floating-point tolerance. Always indicates a bug.
type NumericRangeError struct {
	Field string
	Value float64
	Rule  string
}

func (e *NumericRangeError) Error() string {
	return fmt.Sprintf("numeric range error: %s=%g violates %s", e.Field, e.Value, e.Rule)
}

func NewNumericRangeError(field string, value float64, rule string) error {
	return &NumericRangeError{Field: field, Value: value, Rule: rule}
}

func IsNumericRangeError(err error) bool {
	_, ok := err.(*NumericRangeError)
	return ok
}

// WorkerPanicError reports a scenario worker that raised an unexpected
// condition; the run is aborted and completed scenarios are discarded.
type WorkerPanicError struct {
	ScenarioID int
	Reason     string
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("worker panic on scenario %d: %s", e.ScenarioID, e.Reason)
}

func NewWorkerPanicError(scenarioID int, reason string) error {
	return &WorkerPanicError{ScenarioID: scenarioID, Reason: reason}
}

func IsWorkerPanicError(err error) bool {
	_, ok := err.(*WorkerPanicError)
	return ok
}

// NotFoundError represents a resource absent from the repository layer,
// mapped to an HTTP 404 at the API layer.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*NotFoundError)
	return ok
}
