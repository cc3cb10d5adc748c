//go:build windows

package engine

import (
	"syscall"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

var (
	dwmapi                    = syscall.NewLazyDLL("dwmapi.dll")
	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")
)

const (
	dwmwaUseImmersiveDarkMode = 20
	dwmwaBorderColor          = 34
	dwmwaCaptionColor         = 35
)

// captionColor is a COLORREF (0x00BBGGRR).
const captionColor uint32 = 0x00202020

func applyDarkTitleBar(window *glfw.Window) {
	win := window.GetWin32Window()
	if win == nil {
		return
	}
	hwnd := unsafe.Pointer(win)

	var useDarkMode int32 = 1
	setWindowAttribute(hwnd, dwmwaUseImmersiveDarkMode, unsafe.Pointer(&useDarkMode), unsafe.Sizeof(useDarkMode))

	var border uint32
	setWindowAttribute(hwnd, dwmwaBorderColor, unsafe.Pointer(&border), unsafe.Sizeof(border))

	caption := captionColor
	setWindowAttribute(hwnd, dwmwaCaptionColor, unsafe.Pointer(&caption), unsafe.Sizeof(caption))
}

// Older Windows builds reject some attributes; the title bar then keeps its
// default color.
func setWindowAttribute(hwnd unsafe.Pointer, attribute uintptr, value unsafe.Pointer, size uintptr) {
	ret, _, _ := procDwmSetWindowAttribute.Call(uintptr(hwnd), attribute, uintptr(value), size)
	if ret != 0 {
		logger.Log.Debug("DwmSetWindowAttribute failed",
			zap.Uint64("attribute", uint64(attribute)),
			zap.Uint64("hresult", uint64(ret)))
	}
}
