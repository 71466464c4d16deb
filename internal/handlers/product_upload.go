package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

const maxMultipartMemory = 32 << 20

// productRequest is the JSON form of a product create or update.
type productRequest struct {
	Name           string                `json:"name" binding:"required"`
	Category       string                `json:"category" binding:"required"`
	Price          decimal.Decimal       `json:"price"`
	Description    string                `json:"description"`
	Specifications models.Specifications `json:"specifications"`
	BoxContents    []string              `json:"boxContents"`
	InStock        *bool                 `json:"inStock"`
	ProductCode    string                `json:"productCode"`
	KeptImages     []string              `json:"keptImages"`
}

func (r productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:           r.Name,
		Category:       r.Category,
		Price:          r.Price,
		Description:    r.Description,
		Specifications: r.Specifications,
		BoxContents:    r.BoxContents,
		InStock:        r.InStock,
		ProductCode:    r.ProductCode,
		KeptImages:     r.KeptImages,
	}
}

// parseProductRequest reads a product from either a JSON body or a multipart form
// with "images" file parts. The returned closer releases any opened uploads.
func parseProductRequest(c *gin.Context) (catalog.ProductInput, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return catalog.ProductInput{}, noop, err
		}
		return req.input(), noop, nil
	}

	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return catalog.ProductInput{}, noop, fmt.Errorf("invalid multipart form: %w", err)
	}

	input := catalog.ProductInput{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Category:    strings.TrimSpace(c.PostForm("category")),
		Description: strings.TrimSpace(c.PostForm("description")),
		ProductCode: strings.TrimSpace(c.PostForm("productCode")),
	}

	if value, ok := c.GetPostForm("price"); ok {
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return catalog.ProductInput{}, noop, fmt.Errorf("invalid price: %s", value)
		}
		input.Price = price
	}

	if value, ok := c.GetPostForm("inStock"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return catalog.ProductInput{}, noop, fmt.Errorf("invalid inStock: %s", value)
		}
		input.InStock = &parsed
	}

	if value := strings.TrimSpace(c.PostForm("specifications")); value != "" {
		if err := json.Unmarshal([]byte(value), &input.Specifications); err != nil {
			return catalog.ProductInput{}, noop, fmt.Errorf("invalid specifications: %w", err)
		}
	}

	var err error
	if input.BoxContents, err = formList(c, "boxContents"); err != nil {
		return catalog.ProductInput{}, noop, err
	}
	if input.KeptImages, err = formList(c, "keptImages"); err != nil {
		return catalog.ProductInput{}, noop, err
	}

	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	if form := c.Request.MultipartForm; form != nil {
		for _, header := range form.File["images"] {
			f, err := header.Open()
			if err != nil {
				closeAll()
				return catalog.ProductInput{}, noop, fmt.Errorf("open upload %s: %w", header.Filename, err)
			}
			files = append(files, f)
			input.Uploads = append(input.Uploads, catalog.Upload{Filename: header.Filename, Content: f})
		}
	}
	return input, closeAll, nil
}

// formList accepts either repeated form values or a single JSON array value.
func formList(c *gin.Context, key string) ([]string, error) {
	values := c.PostFormArray(key)
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		return list, nil
	}
	return values, nil
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
