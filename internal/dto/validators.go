package dto

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	fbURLPattern = regexp.MustCompile(`(?i)^(http://|https://)?(?:www\.)?facebook\.com/(?:(?:\w\.)*#!/)?(?:pages/)?(?:[\w\-.]*/)*([\w\-.]*)`)
	igURLPattern = regexp.MustCompile(`(?i)(?:(?:http|https)://)?(?:www.)?(?:instagram.com|instagr.am|instagr.com)/(\w+)`)
)

const (
	minGradYear = 2000
	maxGradYear = 2100
)

// RegisterValidators 向 gin 的校验引擎注册自定义规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	rules := map[string]validator.Func{
		"gradyear":   validateGradYear,
		"maxwords":   validateMaxWords,
		"fburl":      validateFbURL,
		"igurl":      validateIgURL,
		"jsonobject": validateJSONObject,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// validateGradYear 毕业年份须为 2000-2100 的整数
func validateGradYear(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return n >= minGradYear && n <= maxGradYear
}

// validateMaxWords 按空格分词计数，maxwords=50
func validateMaxWords(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return len(strings.Split(s, " ")) <= limit
}

func validateFbURL(fl validator.FieldLevel) bool {
	return fbURLPattern.MatchString(fl.Field().String())
}

func validateIgURL(fl validator.FieldLevel) bool {
	return igURLPattern.MatchString(fl.Field().String())
}

// validateJSONObject 字段须为 JSON 对象（内容本身不做解释）
func validateJSONObject(fl validator.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(json.RawMessage)
	if !ok {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
