package habit

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/habitrack/internal/model"
)

// validate はhabitパッケージの入力検証に使う共有インスタンス。
// initでカスタムルールを登録する。
var validate *validator.Validate

func init() {
	validate = validator.New()

	// YYYY-MM-DD形式の実在する日付のみを許可する
	_ = validate.RegisterValidation("yyyymmdd", validateDate)
}

func validateDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len(model.DateLayout) {
		return false
	}
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}

// CreateInput は習慣作成の入力。
type CreateInput struct {
	Title       string `validate:"required"`
	Description string
	Frequency   string `validate:"required"`
	Owner       string `validate:"required"`
}

// UpdateInput は習慣更新の入力。nilのフィールドは変更しない。
// owner等の許可リスト外のフィールドはここに含まれない。
type UpdateInput struct {
	Title       *string
	Description *string
	Frequency   *string `validate:"omitnil,oneof=daily weekly"`
	Status      *string `validate:"omitnil,oneof=active archived"`
}

// MarkInput は達成記録の入力。Completedがnilの場合はtrueとして扱う。
type MarkInput struct {
	Date      string `validate:"required,yyyymmdd"`
	Completed *bool
}

// validateCreate は作成入力を検証する。
// 必須フィールドの不足はどのフィールドかを区別せず1種類のエラーにする。
func validateCreate(in CreateInput) error {
	if err := validate.Struct(in); err != nil {
		return model.NewMissingFieldsError()
	}
	if !model.Frequency(in.Frequency).Valid() {
		return model.NewInvalidFrequencyError(in.Frequency)
	}
	return nil
}

// validateUpdate は更新入力の列挙値を検証する。
func validateUpdate(in UpdateInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewInvalidRequestError()
	}
	switch verrs[0].StructField() {
	case "Frequency":
		return model.NewInvalidFrequencyError(*in.Frequency)
	case "Status":
		return model.NewInvalidStatusError(*in.Status)
	default:
		return model.NewInvalidRequestError()
	}
}

// validateMark は達成記録入力を検証する。
func validateMark(in MarkInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && verrs[0].Tag() == "yyyymmdd" {
		return model.NewInvalidDateError(in.Date)
	}
	return model.NewDateRequiredError()
}

// validateStatusFilter は一覧取得のstatusクエリを検証する。空文字は絞り込みなし。
func validateStatusFilter(status string) error {
	if status == "" || model.HabitStatus(status).Valid() {
		return nil
	}
	return model.NewInvalidStatusError(status)
}
