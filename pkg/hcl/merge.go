package hcl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// MergeHCLFiles concatenates timeline files in the given order and parses
// them as one body, so bands may be split across files.
func MergeHCLFiles(filePaths []string) (*hcl.File, error) {
	parser := hclparse.NewParser()
	var mergedContent bytes.Buffer

	for _, path := range filePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		mergedContent.Write(content)
		mergedContent.WriteString("\n")
	}

	file, diags := parser.ParseHCL(mergedContent.Bytes(), "merged.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse merged HCL content: %s", diags.Error())
	}

	return file, nil
}

// ParseHCLFile parses a single timeline file.
func ParseHCLFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return ParseHCLTimeline(string(content))
}

// ParseHCLDirectory parses all .hcl files in a directory as one timeline.
// Bands keep the order of the files, sorted by path, and of the blocks
// within each file.
func ParseHCLDirectory(dirPath string) (*Document, error) {
	var hclFiles []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsHCLBasedOnExtension(info.Name()) {
			hclFiles = append(hclFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no HCL files found in directory %s", dirPath)
	}
	sort.Strings(hclFiles)

	mergedFile, err := MergeHCLFiles(hclFiles)
	if err != nil {
		return nil, err
	}

	return parseHCLTimelineFromFile(mergedFile)
}

// ParseHCLPath parses path as a directory of timeline files or a single file.
func ParseHCLPath(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return ParseHCLDirectory(path)
	}
	return ParseHCLFile(path)
}
