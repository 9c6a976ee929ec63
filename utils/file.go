package utils

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	FILE_EXT_TIF  = ".tif"
	FILE_EXT_TIFF = ".tiff"
)

var (
	ErrNoTifInDir = errors.New("no tif in dir")
)

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 列出目录下全部tif/tiff文件（不递归，按文件名排序）
func GetTifsInDir(dir string) (tifs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case FILE_EXT_TIF, FILE_EXT_TIFF:
			tifs = append(tifs, filepath.Join(dir, e.Name()))
		}
	}
	if len(tifs) == 0 {
		err = ErrNoTifInDir
		return
	}
	sort.Strings(tifs)
	return
}

// 输出路径：outDir/prefix+输入文件名（不含扩展名）+.tiff
func GetOutputPath(outDir, infile, prefix string) string {
	return filepath.Join(outDir, prefix+GetFilenameWithoutExt(infile)+FILE_EXT_TIFF)
}
