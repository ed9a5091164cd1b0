package tools

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

const readFileMaxChars = 50000

// FileFinder resolves attachment names against the working directory, then
// each extra directory in order.
type FileFinder struct {
	Dirs []string
}

// Find returns the first existing path for name
func (f FileFinder) Find(name string) (string, error) {
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		for _, dir := range f.Dirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("file %q not found in current directory or %s", name, strings.Join(f.Dirs, ", "))
}

// ListFiles lists files in a directory
type ListFiles struct {
	Finder FileFinder
}

func (ListFiles) Name() string { return "list_files" }

func (ListFiles) Description() string {
	return "List files in a directory (default: the current directory and the downloads directory) with their sizes."
}

func (ListFiles) Parameters() map[string]any {
	return objectSchema(nil, map[string]string{
		"directory": "Directory to list; omit for the default locations",
	})
}

// Invoke lists args["directory"]
func (l ListFiles) Invoke(ctx context.Context, args map[string]any) (string, error) {
	dir := optionalString(args, "directory", ".")
	dirs := []string{dir}
	if dir == "." {
		dirs = append(dirs, l.Finder.Dirs...)
	}

	var lines []string
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("list %s: %w", d, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s (%d bytes)", filepath.Join(d, e.Name()), info.Size()))
		}
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No files found in '%s'.", dir), nil
	}
	return "Files found:\n" + strings.Join(lines, "\n"), nil
}

// ReadFile returns the text of an attachment: plain text, CSV, PDF or Excel
type ReadFile struct {
	Finder   FileFinder
	MaxChars int
}

func (ReadFile) Name() string { return "read_file" }

func (ReadFile) Description() string {
	return "Read a file attached to the question. Handles text, code, CSV, JSON, PDF and Excel (.xlsx). " +
		"Use analyze_image for images and understand_audio for audio."
}

func (ReadFile) Parameters() map[string]any {
	return objectSchema([]string{"path"}, map[string]string{
		"path": "File name or path",
	})
}

// Invoke reads args["path"]
func (r ReadFile) Invoke(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	path, err := r.Finder.Find(name)
	if err != nil {
		return "", err
	}

	var content string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		content, err = readPDF(path)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		content, err = readExcel(path)
	case ".csv":
		content, err = readCSV(path)
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".mp3", ".wav", ".m4a", ".mp4":
		return "", fmt.Errorf("%s is a media file; use analyze_image or understand_audio", name)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		content = string(data)
	}
	if err != nil {
		return "", err
	}

	limit := r.MaxChars
	if limit <= 0 {
		limit = readFileMaxChars
	}
	return truncate(content, limit), nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func readExcel(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		fmt.Fprintf(&sb, "=== Sheet: %s ===\n", sheet)
		rows, err := f.GetRows(sheet)
		if err != nil {
			fmt.Fprintf(&sb, "Error reading sheet: %v\n\n", err)
			continue
		}
		if len(rows) == 0 {
			sb.WriteString("(empty sheet)\n\n")
			continue
		}
		for rowIdx, row := range rows {
			cells := make([]string, 0, len(row))
			for colIdx, value := range row {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if color := cellFill(f, sheet, cell); color != "" {
					cells = append(cells, fmt.Sprintf("%s=%s[#%s]", cell, value, color))
				} else if value != "" {
					cells = append(cells, fmt.Sprintf("%s=%s", cell, value))
				}
			}
			fmt.Fprintf(&sb, "Row %d: %s\n", rowIdx+1, strings.Join(cells, " | "))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// cellFill returns the background color of a cell, or "" for none or white
func cellFill(f *excelize.File, sheet, cell string) string {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return ""
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil || len(style.Fill.Color) == 0 {
		return ""
	}
	color := strings.ToUpper(strings.TrimPrefix(style.Fill.Color[0], "#"))
	if len(color) == 8 && strings.HasPrefix(color, "FF") {
		color = color[2:]
	}
	if color == "" || color == "FFFFFF" {
		return ""
	}
	return color
}

func readCSV(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		// Not strictly CSV; hand back the raw text
		return string(data), nil
	}
	var sb strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&sb, "Row %d: %s\n", i+1, strings.Join(rec, " | "))
	}
	return sb.String(), nil
}
