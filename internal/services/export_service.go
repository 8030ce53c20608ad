package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/justsurfingit/studylink/internal/models"
	"github.com/xuri/excelize/v2"
)

const studentsSheet = "Étudiants"

var studentsHeader = []any{"ID", "Prénom", "Nom", "Email", "Compétences", "CV", "Inscrit le"}

// ExportService renders spreadsheets for school owners.
type ExportService struct {
	Schools *SchoolService
}

func NewExportService(schools *SchoolService) *ExportService {
	return &ExportService{Schools: schools}
}

// StudentsXLSX returns the school's students as an xlsx workbook.
func (s *ExportService) StudentsXLSX(ctx context.Context, schoolID uint) ([]byte, error) {
	students, err := s.Schools.Students(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return renderStudents(students)
}

func renderStudents(students []models.Student) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", studentsSheet); err != nil {
		return nil, fmt.Errorf("export sheet: %w", err)
	}
	if err := f.SetSheetRow(studentsSheet, "A1", &studentsHeader); err != nil {
		return nil, fmt.Errorf("export header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export style: %w", err)
	}
	if err := f.SetCellStyle(studentsSheet, "A1", "G1", bold); err != nil {
		return nil, fmt.Errorf("export style: %w", err)
	}

	for i, st := range students {
		var first, last, email, registered string
		if st.User != nil {
			first, last, email = deref(st.User.FirstName), deref(st.User.LastName), st.User.Email
			registered = st.User.CreatedAt.Format("02/01/2006")
		}
		row := []any{st.ID, first, last, email, st.Skills, deref(st.CVURL), registered}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(studentsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export row %d: %w", i, err)
		}
	}
	if err := f.SetColWidth(studentsSheet, "B", "F", 24); err != nil {
		return nil, fmt.Errorf("export layout: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export write: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
