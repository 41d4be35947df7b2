package source

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/versemem/core/books"
	verrors "github.com/FocuswithJustin/versemem/core/errors"
)

// CustomPrefix starts every imported source id.
const CustomPrefix = "custom-"

// NewCustomID returns a fresh id for an imported source.
func NewCustomID() string {
	return CustomPrefix + uuid.NewString()
}

// ImportZefania converts a Zefania XML bible into the plain line format:
// the book name on its own line, then "<book> <chapter>:<verse> <text>" per
// verse. Books without a bname take their English name from bnumber.
func ImportZefania(r io.Reader) (string, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return "", &verrors.ParseError{Format: "zefania", Message: "invalid XML", Err: err}
	}

	bookNodes := xmlquery.Find(doc, "//BIBLEBOOK")
	if len(bookNodes) == 0 {
		return "", verrors.NewParse("zefania", "", "no BIBLEBOOK elements")
	}

	canon := books.DefaultCatalog().Books()
	var sb strings.Builder
	for _, bn := range bookNodes {
		name := strings.TrimSpace(bn.SelectAttr("bname"))
		if name == "" {
			if n, err := strconv.Atoi(bn.SelectAttr("bnumber")); err == nil && n >= 1 && n <= len(canon) {
				name = canon[n-1].Name(books.English)
			}
		}
		if name == "" {
			continue
		}

		sb.WriteString(name)
		sb.WriteByte('\n')
		for _, cn := range xmlquery.Find(bn, "CHAPTER") {
			chapter, err := strconv.Atoi(strings.TrimSpace(cn.SelectAttr("cnumber")))
			if err != nil {
				continue
			}
			for _, vn := range xmlquery.Find(cn, "VERS") {
				verse, err := strconv.Atoi(strings.TrimSpace(vn.SelectAttr("vnumber")))
				if err != nil {
					continue
				}
				text := strings.Join(strings.Fields(vn.InnerText()), " ")
				fmt.Fprintf(&sb, "%s %d:%d %s\n", name, chapter, verse, text)
			}
		}
	}

	if sb.Len() == 0 {
		return "", verrors.NewParse("zefania", "", "no named books")
	}
	return sb.String(), nil
}
