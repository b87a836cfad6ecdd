package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_SHX = ".shx"
	FILE_EXT_DBF = ".dbf"
	FILE_EXT_PRJ = ".prj"
	FILE_EXT_TIF = ".tif"
	FILE_EXT_NC  = ".nc"
	FILE_EXT_PNG = ".png"
)

var (
	ErrNotDir = errors.New("path is not a directory")
)

// 在parentPath下创建唯一的临时子目录
func GetUniqSubDir(parentPath string) (path string, err error) {
	if err = os.MkdirAll(parentPath, os.ModePerm); err != nil {
		return
	}
	path = filepath.Join(parentPath, "."+uuid.NewString())
	err = os.Mkdir(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// shp文件及其附属文件（shx、dbf、prj）
func GetShpSidecars(shp string) []string {
	base := strings.TrimSuffix(shp, filepath.Ext(shp))
	return []string{base + FILE_EXT_SHP, base + FILE_EXT_SHX, base + FILE_EXT_DBF, base + FILE_EXT_PRJ}
}

func IsDir(path string) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if !info.IsDir() {
		err = ErrNotDir
	}
	return
}

// 移动文件，目标目录不存在时自动创建，已有同名文件会被覆盖
func MoveFile(src, dst string) (err error) {
	if err = os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return
	}
	err = os.Rename(src, dst)
	return
}
