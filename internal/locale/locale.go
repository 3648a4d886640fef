// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package locale holds the display strings and date-time layouts for the
// supported languages. English is the fallback; Russian is also available.
package locale

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/pdiddy/pdfmeta/pkg/types"
)

// Message keys. The English catalog entry for each key is the key itself.
const (
	FileName        = "File name"
	Size            = "Size"
	PageCount       = "Page count"
	Title           = "Title"
	Author          = "Author"
	Creator         = "Creator"
	Producer        = "Producer"
	CreationDate    = "Creation date"
	ModDate         = "Modification date"
	PDFVersion      = "PDF version"
	Encrypted       = "Encrypted"
	Yes             = "Yes"
	No              = "No"
	NotSpecified    = "Not specified"
	ErrPassword     = "PDF file is password protected"
	ErrInvalid      = "Invalid PDF file"
	ErrReading      = "Error reading PDF file"
	MetadataHeading = "File metadata"
	UploadPrompt    = "Drop a PDF file here or click to choose one"
	UploadButton    = "Show metadata"
	LoadingMetadata = "Loading metadata..."
)

var russian = map[string]string{
	FileName:        "Имя файла",
	Size:            "Размер",
	PageCount:       "Количество страниц",
	Title:           "Заголовок",
	Author:          "Автор",
	Creator:         "Создатель",
	Producer:        "Производитель",
	CreationDate:    "Дата создания",
	ModDate:         "Дата изменения",
	PDFVersion:      "Версия PDF",
	Encrypted:       "Зашифрован",
	Yes:             "Да",
	No:              "Нет",
	NotSpecified:    "Не указано",
	ErrPassword:     "PDF файл защищен паролем",
	ErrInvalid:      "Недействительный PDF файл",
	ErrReading:      "Ошибка при чтении PDF файла",
	MetadataHeading: "Метаданные файла",
	UploadPrompt:    "Перетащите PDF файл сюда или кликните для выбора",
	UploadButton:    "Показать метаданные",
	LoadingMetadata: "Загрузка метаданных...",
}

var layouts = map[language.Base]string{
	language.MustParseBase("en"): "1/2/2006, 3:04:05 PM",
	language.MustParseBase("ru"): "02.01.2006, 15:04:05",
}

var supported = []language.Tag{language.English, language.Russian}

var cat = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{
		FileName, Size, PageCount, Title, Author, Creator, Producer,
		CreationDate, ModDate, PDFVersion, Encrypted, Yes, No, NotSpecified,
		ErrPassword, ErrInvalid, ErrReading, MetadataHeading, UploadPrompt,
		UploadButton, LoadingMetadata,
	} {
		b.SetString(language.English, key, key)
	}
	for key, msg := range russian {
		b.SetString(language.Russian, key, msg)
	}
	return b
}

// Localizer renders display strings for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
	layout  string
}

// New returns a Localizer for the best supported match of the BCP 47 tag.
// Unknown or malformed tags fall back to English.
func New(tag string) *Localizer {
	matcher := language.NewMatcher(supported)
	desired, err := language.Parse(tag)
	if err != nil {
		desired = language.English
	}
	_, idx, _ := matcher.Match(desired)
	match := supported[idx]

	base, _ := match.Base()
	return &Localizer{
		tag:     match,
		printer: message.NewPrinter(match, message.Catalog(cat)),
		layout:  layouts[base],
	}
}

// Tag returns the matched language.
func (l *Localizer) Tag() language.Tag { return l.tag }

// Text returns the localized string for a message key.
func (l *Localizer) Text(key string) string {
	return l.printer.Sprintf(key)
}

// Placeholder is shown for absent properties.
func (l *Localizer) Placeholder() string { return l.Text(NotSpecified) }

// Bool renders a yes/no flag.
func (l *Localizer) Bool(v bool) string {
	if v {
		return l.Text(Yes)
	}
	return l.Text(No)
}

// DateLayout returns the Go time layout for this language.
func (l *Localizer) DateLayout() string { return l.layout }

// ErrorMessage returns the user-facing message for an extraction failure.
// Errors that are not ExtractionErrors are treated as KindOther.
func (l *Localizer) ErrorMessage(err error) string {
	var ee *types.ExtractionError
	if !errors.As(err, &ee) {
		return l.Text(ErrReading) + ": " + err.Error()
	}
	switch ee.Kind {
	case types.KindPasswordProtected:
		return l.Text(ErrPassword)
	case types.KindInvalidDocument:
		return l.Text(ErrInvalid)
	}
	msg := l.Text(ErrReading)
	if detail := ee.Detail(); detail != "" {
		msg += ": " + detail
	} else if ee.Message != "" {
		msg += ": " + ee.Message
	}
	return msg
}
