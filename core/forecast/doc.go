// Package forecast provides the time-series model used to project visit and
// booking counts. A Fitter turns a dated history into a Model, and the Model
// predicts a value with its uncertainty for arbitrary dates. Callers depend on
// the interfaces so tests can inject deterministic models.
package forecast
