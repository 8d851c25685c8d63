package material

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/core/common/validation"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

const (
	maxItemNameLength = 200
	maxUnitLength     = 50
)

// LineDTO is one submitted row. Quantity keeps the raw text so that a bad
// row is skipped by Lines instead of failing the whole body.
type LineDTO struct {
	ItemName string                  `json:"item_name"`
	Quantity transport.LenientNumber `json:"quantity"`
}

type SubmitDTO struct {
	Items       []LineDTO `json:"items"`
	Unit        string    `json:"unit"`
	Description string    `json:"description"`
	Photo       *Photo    `json:"-"`
}

// Photo is an uploaded image held in memory until it is stored.
type Photo struct {
	Filename string
	Data     []byte
}

func (d *SubmitDTO) Normalize() {
	d.Unit = strings.TrimSpace(d.Unit)
	d.Description = strings.TrimSpace(d.Description)
}

// Lines returns the usable rows. A row with an empty name or a quantity
// that is not a positive integer is skipped.
func (d SubmitDTO) Lines() []Line {
	lines := make([]Line, 0, len(d.Items))
	for _, item := range d.Items {
		name := strings.TrimSpace(item.ItemName)
		if name == "" {
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(string(item.Quantity)))
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, Line{ItemName: name, Quantity: qty})
	}
	return lines
}

// Validate returns the usable rows, ErrNoItems when there are none.
func (d SubmitDTO) Validate() ([]Line, error) {
	lines := d.Lines()
	if len(lines) == 0 {
		return nil, ErrNoItems
	}

	v := validation.NewValidator()
	for i, l := range lines {
		v.Field(fmt.Sprintf("item_name[%d]", i), l.ItemName).MaxLength(maxItemNameLength)
	}
	v.Field("unit", d.Unit).MaxLength(maxUnitLength)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ItemsFromForm pairs the repeated item_name and quantity values by
// position. Names without a matching quantity get an empty one.
func ItemsFromForm(names, quantities []string) []LineDTO {
	items := make([]LineDTO, len(names))
	for i, name := range names {
		items[i].ItemName = name
		if i < len(quantities) {
			items[i].Quantity = transport.LenientNumber(quantities[i])
		}
	}
	return items
}

// SubmitDTOFromRequest reads a JSON body, a urlencoded form or a multipart
// form with an optional photo of at most maxPhotoBytes.
func SubmitDTOFromRequest(r *http.Request, maxPhotoBytes int64) (SubmitDTO, error) {
	var dto SubmitDTO
	if transport.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return dto, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
		return dto, nil
	}

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(nil, r.Body, maxPhotoBytes+1<<20)
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return dto, photoTooLarge(maxPhotoBytes)
			}
			return dto, internal.NewValidationError("invalid form data", internal.ErrCodeValidationFailed)
		}
	} else if err := r.ParseForm(); err != nil {
		return dto, internal.NewValidationError("invalid form data", internal.ErrCodeValidationFailed)
	}

	dto.Items = ItemsFromForm(r.PostForm["item_name"], r.PostForm["quantity"])
	dto.Unit = r.PostFormValue("unit")
	dto.Description = r.PostFormValue("description")

	photo, err := readPhoto(r, maxPhotoBytes)
	if err != nil {
		return dto, err
	}
	dto.Photo = photo
	return dto, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func readPhoto(r *http.Request, maxBytes int64) (*Photo, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, internal.NewValidationFieldError("photo", "photo could not be read", internal.ErrCodeInvalidPhoto)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, internal.NewValidationFieldError("photo", "photo could not be read", internal.ErrCodeInvalidPhoto)
	}
	if int64(len(data)) > maxBytes {
		return nil, photoTooLarge(maxBytes)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &Photo{Filename: header.Filename, Data: data}, nil
}

func photoTooLarge(maxBytes int64) error {
	return internal.NewValidationFieldError("photo",
		fmt.Sprintf("photo must not exceed %d bytes", maxBytes), internal.ErrCodeInvalidPhoto)
}
