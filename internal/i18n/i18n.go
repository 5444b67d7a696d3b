// Package i18n holds the user-facing message catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	MsgLocationUnavailable = "Current location unavailable"
	MsgLocationNotFound    = "Location not found"
	MsgInvalidPayload      = "Invalid location data"
	MsgNoQRCode            = "No QR code found in image"
	MsgEmptyCSV            = "Empty or invalid CSV file"
	MsgNothingToExport     = "No locations to export"
	MsgImported            = "Imported %d locations"
	MsgDeleted             = "Location deleted"
	MsgSaveFailed          = "Failed to save location"
	MsgUnsupportedLanguage = "Unsupported language"
	MsgInvalidRequest      = "Invalid request"
	MsgUnauthorized        = "Unauthorized"
	MsgInternalError       = "Something went wrong"
	MsgUploadTooLarge      = "File is too large"
)

type supportedLanguage struct {
	code string
	tag  language.Tag
}

var languages = []supportedLanguage{
	{code: "en", tag: language.English},
	{code: "vi", tag: language.Vietnamese},
	{code: "zh-Hans", tag: language.SimplifiedChinese},
}

var translations = map[language.Tag]map[string]string{
	language.Vietnamese: {
		MsgLocationUnavailable: "Không xác định được vị trí hiện tại",
		MsgLocationNotFound:    "Không tìm thấy địa điểm",
		MsgInvalidPayload:      "Dữ liệu vị trí không hợp lệ",
		MsgNoQRCode:            "Không tìm thấy mã QR trong ảnh",
		MsgEmptyCSV:            "Tệp CSV trống hoặc không hợp lệ",
		MsgNothingToExport:     "Không có địa điểm nào để xuất",
		MsgImported:            "Đã nhập %d địa điểm",
		MsgDeleted:             "Đã xóa địa điểm",
		MsgSaveFailed:          "Không thể lưu địa điểm",
		MsgUnsupportedLanguage: "Ngôn ngữ không được hỗ trợ",
		MsgInvalidRequest:      "Yêu cầu không hợp lệ",
		MsgUnauthorized:        "Chưa được xác thực",
		MsgInternalError:       "Đã xảy ra lỗi",
		MsgUploadTooLarge:      "Tệp quá lớn",
	},
	language.SimplifiedChinese: {
		MsgLocationUnavailable: "无法获取当前位置",
		MsgLocationNotFound:    "未找到该地点",
		MsgInvalidPayload:      "位置数据无效",
		MsgNoQRCode:            "图片中未找到二维码",
		MsgEmptyCSV:            "CSV 文件为空或无效",
		MsgNothingToExport:     "没有可导出的地点",
		MsgImported:            "已导入 %d 个地点",
		MsgDeleted:             "地点已删除",
		MsgSaveFailed:          "保存地点失败",
		MsgUnsupportedLanguage: "不支持的语言",
		MsgInvalidRequest:      "请求无效",
		MsgUnauthorized:        "未授权",
		MsgInternalError:       "出现错误",
		MsgUploadTooLarge:      "文件过大",
	},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{
		MsgLocationUnavailable, MsgLocationNotFound, MsgInvalidPayload, MsgNoQRCode,
		MsgEmptyCSV, MsgNothingToExport, MsgImported, MsgDeleted, MsgSaveFailed,
		MsgUnsupportedLanguage, MsgInvalidRequest, MsgUnauthorized, MsgInternalError,
		MsgUploadTooLarge,
	} {
		_ = b.SetString(language.English, key, key)
	}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = b.SetString(tag, key, msg)
		}
	}
	return b
}

// Supported lists the language codes the catalog covers.
func Supported() []string {
	codes := make([]string, len(languages))
	for i, l := range languages {
		codes[i] = l.code
	}
	return codes
}

// Normalize maps a BCP 47 code onto one of the supported codes, ignoring case.
func Normalize(code string) (string, bool) {
	l, ok := lookup(code)
	return l.code, ok
}

// Printer formats catalog messages in the given language, falling back to English.
func Printer(code string) *message.Printer {
	tag := language.English
	if l, ok := lookup(code); ok {
		tag = l.tag
	}
	return message.NewPrinter(tag, message.Catalog(cat))
}

func lookup(code string) (supportedLanguage, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return supportedLanguage{}, false
	}
	for _, l := range languages {
		if tag == l.tag {
			return l, true
		}
	}
	return supportedLanguage{}, false
}

// T is shorthand for Printer(code).Sprintf(key, args...).
func T(code, key string, args ...interface{}) string {
	return Printer(code).Sprintf(key, args...)
}
