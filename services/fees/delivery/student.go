package delivery

import (
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type studentRequest struct {
	StudentName       string   `json:"student_name" validate:"required,max=150"`
	RollNumber        string   `json:"roll_number" validate:"required,max=50"`
	Class             string   `json:"class" validate:"required,max=100"`
	Course            string   `json:"course" validate:"required,max=150"`
	JoiningDate       string   `json:"joining_date" validate:"required"`
	ParentPhone       *string  `json:"parent_phone" validate:"omitempty,max=20"`
	ParentEmail       *string  `json:"parent_email" validate:"omitempty,email"`
	Address           *string  `json:"address"`
	Notes             *string  `json:"notes"`
	FinalFeeAmount    *float64 `json:"final_fee_amount" validate:"omitempty,gte=0"`
	StandardFeeAmount *float64 `json:"standard_fee_amount" validate:"omitempty,gte=0"`
}

func (r *studentRequest) toStudent() (*domain.Student, error) {
	joined, err := parseDateField("joining_date", r.JoiningDate)
	if err != nil {
		return nil, err
	}
	return &domain.Student{
		StudentName:       r.StudentName,
		RollNumber:        r.RollNumber,
		Class:             r.Class,
		Course:            r.Course,
		JoiningDate:       datatypes.Date(joined),
		ParentPhone:       r.ParentPhone,
		ParentEmail:       r.ParentEmail,
		Address:           r.Address,
		Notes:             r.Notes,
		FinalFeeAmount:    r.FinalFeeAmount,
		StandardFeeAmount: r.StandardFeeAmount,
	}, nil
}

type studentHandler struct {
	suc domain.StudentUseCase
	iuc domain.ImportExportUseCase
}

func NewStudentDelivery(app fiber.Router, uc domain.StudentUseCase, iuc domain.ImportExportUseCase) {
	handler := &studentHandler{
		suc: uc,
		iuc: iuc,
	}

	route := app.Group("/students", middleware.AuthRequired())
	route.Post("/import", middleware.RoleRequired("admin"), handler.ImportStudents)
	route.Get("/export", middleware.RoleRequired("admin"), handler.ExportStudents)
	route.Get("/", middleware.RoleRequired("admin", "staff"), handler.GetAllStudents)
	route.Get("/:id", middleware.RoleRequired("admin", "staff"), handler.GetStudentByID)
	route.Post("/", middleware.RoleRequired("admin", "staff"), handler.CreateStudent)
	route.Put("/:id", middleware.RoleRequired("admin", "staff"), handler.UpdateStudent)
	route.Delete("/:id", middleware.RoleRequired("admin"), handler.DeleteStudent)
}

func (sh *studentHandler) GetAllStudents(c *fiber.Ctx) error {
	filter := domain.StudentFilter{
		Search: c.Query("search"),
		Class:  c.Query("class"),
		Course: c.Query("course"),
	}

	students, err := sh.suc.GetAllStudents(c.UserContext(), filter)
	if err != nil {
		return fail(c, err, "Failed to retrieve students", "GetAllStudents")
	}
	return ok(c, fiber.StatusOK, "Students retrieved successfully", "GetAllStudents", students)
}

func (sh *studentHandler) GetStudentByID(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid student id", "GetStudentByID")
	}

	student, err := sh.suc.GetStudentByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to retrieve student", "GetStudentByID")
	}
	return ok(c, fiber.StatusOK, "Student retrieved successfully", "GetStudentByID", student)
}

func (sh *studentHandler) CreateStudent(c *fiber.Ctx) error {
	var req studentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid student data", "CreateStudent")
	}
	student, err := req.toStudent()
	if err != nil {
		return fail(c, err, "Invalid student data", "CreateStudent")
	}

	created, err := sh.suc.CreateStudent(c.UserContext(), student)
	if err != nil {
		return fail(c, err, "Failed to create student", "CreateStudent")
	}
	return ok(c, fiber.StatusCreated, "Student created successfully", "CreateStudent", created)
}

func (sh *studentHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid student id", "UpdateStudent")
	}
	var req studentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid student data", "UpdateStudent")
	}
	student, err := req.toStudent()
	if err != nil {
		return fail(c, err, "Invalid student data", "UpdateStudent")
	}

	updated, err := sh.suc.UpdateStudent(c.UserContext(), id, student)
	if err != nil {
		return fail(c, err, "Failed to update student", "UpdateStudent")
	}
	return ok(c, fiber.StatusOK, "Student updated successfully", "UpdateStudent", updated)
}

func (sh *studentHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid student id", "DeleteStudent")
	}

	if err := sh.suc.DeleteStudent(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to delete student", "DeleteStudent")
	}
	return ok(c, fiber.StatusOK, "Student deleted successfully", "DeleteStudent", nil)
}

func (sh *studentHandler) ImportStudents(c *fiber.Ctx) error {
	result, err := importUpload(c, sh.iuc.ImportStudents)
	if err != nil {
		return fail(c, err, "Failed to import students", "ImportStudents")
	}
	return ok(c, fiber.StatusOK, "Students imported", "ImportStudents", result)
}

func (sh *studentHandler) ExportStudents(c *fiber.Ctx) error {
	return exportCSV(c, "students", "ExportStudents", sh.iuc.ExportStudents)
}
