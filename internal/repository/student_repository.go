package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/database"
)

const studentColumns = `id, student_id, name, grade, class_num, math_units, english_units, specialization1, specialization2, social_units,
        cs_units, data_units, physics_units, chemistry_units, tech_eligible, elite_tech, science_elite, elite_555, total_units, status,
        created_at, updated_at`

const insertStudentQuery = `INSERT INTO students (` + studentColumns + `)
        VALUES (:id, :student_id, :name, :grade, :class_num, :math_units, :english_units, :specialization1, :specialization2, :social_units,
        :cs_units, :data_units, :physics_units, :chemistry_units, :tech_eligible, :elite_tech, :science_elite, :elite_555, :total_units, :status,
        :created_at, :updated_at)`

// gradeRank orders grades from the youngest cohort.
const gradeRank = `CASE grade WHEN 'ט' THEN 1 WHEN 'י' THEN 2 WHEN 'יא' THEN 3 WHEN 'יב' THEN 4 ELSE 5 END`

var studentSorts = map[string][]string{
	"student_id":      {"student_id"},
	"name":            {"name"},
	"class":           {gradeRank, "class_num"},
	"math_units":      {"math_units"},
	"english_units":   {"english_units"},
	"specialization1": {"specialization1"},
	"specialization2": {"specialization2"},
	"status":          {"status"},
	"total_units":     {"total_units"},
	"created_at":      {"created_at"},
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns one page of students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	where, args := studentWhere(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM students %s ORDER BY %s LIMIT %d OFFSET %d", studentColumns, where, studentOrder(filter), size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student matching the filters, ignoring pagination.
func (r *StudentRepository) ListAll(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	where, args := studentWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM students %s ORDER BY %s", studentColumns, where, studentOrder(filter))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	stampStudent(student, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// BulkCreate inserts all students in one transaction; either every row lands or none.
func (r *StudentRepository) BulkCreate(ctx context.Context, students []*models.Student) error {
	if len(students) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i, student := range students {
			stampStudent(student, now)
			if _, err := tx.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
				return fmt.Errorf("bulk create student %d: %w", i, err)
			}
		}
		return nil
	})
}

// Replace overwrites every raw and derived field of an existing student.
func (r *StudentRepository) Replace(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_id = :student_id, name = :name, grade = :grade, class_num = :class_num,
        math_units = :math_units, english_units = :english_units, specialization1 = :specialization1, specialization2 = :specialization2,
        social_units = :social_units, cs_units = :cs_units, data_units = :data_units, physics_units = :physics_units,
        chemistry_units = :chemistry_units, tech_eligible = :tech_eligible, elite_tech = :elite_tech, science_elite = :science_elite,
        elite_555 = :elite_555, total_units = :total_units, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("replace student: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a student permanently.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res)
}

func stampStudent(student *models.Student, now time.Time) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func studentWhere(filter models.StudentFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	add := func(expr string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.Grade != "" {
		add("grade = $%d", filter.Grade)
	}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(filter.Search))+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(`(LOWER(name) LIKE $%d ESCAPE '\' OR LOWER(COALESCE(student_id, '')) LIKE $%d ESCAPE '\')`, n, n))
	}
	// A zero units filter selects students without a recorded load.
	if filter.MathUnits != nil {
		if *filter.MathUnits == 0 {
			conditions = append(conditions, "math_units IS NULL")
		} else {
			add("math_units = $%d", *filter.MathUnits)
		}
	}
	if filter.EnglishUnits != nil {
		if *filter.EnglishUnits == 0 {
			conditions = append(conditions, "english_units IS NULL")
		} else {
			add("english_units = $%d", *filter.EnglishUnits)
		}
	}
	if filter.Specialization1 != "" {
		add("specialization1 = $%d", filter.Specialization1)
	}
	if filter.Specialization2 != "" {
		add("specialization2 = $%d", filter.Specialization2)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func studentOrder(filter models.StudentFilter) string {
	columns, ok := studentSorts[filter.SortBy]
	if !ok {
		columns = studentSorts["created_at"]
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
		if ok && filter.SortBy != "created_at" {
			order = "ASC"
		}
	}
	parts := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		parts = append(parts, column+" "+order)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}
