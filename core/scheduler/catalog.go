package scheduler

import "github.com/kilianp07/spos/core/model"

var catalog = []model.ScheduleWindow{
	{Start: "08:00:00", End: "14:00:00"},
	{Start: "09:00:00", End: "15:00:00"},
	{Start: "09:00:00", End: "17:00:00"},
	{Start: "09:00:00", End: "19:00:00"},
	{Start: "10:00:00", End: "14:00:00"},
	{Start: "10:00:00", End: "16:00:00"},
	{Start: "10:00:00", End: "18:00:00"},
	{Start: "10:00:00", End: "20:00:00"},
	{Start: "11:00:00", End: "15:00:00"},
	{Start: "11:00:00", End: "17:00:00"},
	{Start: "12:00:00", End: "16:00:00"},
	{Start: "12:00:00", End: "18:00:00"},
	{Start: "12:00:00", End: "20:00:00"},
	{Start: "13:00:00", End: "17:00:00"},
	{Start: "13:00:00", End: "19:00:00"},
	{Start: "14:00:00", End: "18:00:00"},
	{Start: "14:00:00", End: "20:00:00"},
	{Start: "15:00:00", End: "19:00:00"},
	{Start: "16:00:00", End: "20:00:00"},
}

// Catalog returns a copy of the candidate daily opening windows.
func Catalog() []model.ScheduleWindow {
	out := make([]model.ScheduleWindow, len(catalog))
	copy(out, catalog)
	return out
}
