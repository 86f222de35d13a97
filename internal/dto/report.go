package dto

// MonthQuery binds ?month=&year= parameters.
type MonthQuery struct {
	Month int `form:"month" validate:"required,min=1,max=12"`
	Year  int `form:"year" validate:"required,min=1900,max=9999"`
}

// ExportQuery binds the monthly export parameters.
type ExportQuery struct {
	MonthQuery
	Format string `form:"format" validate:"omitempty,oneof=xlsx csv pdf"`
}
