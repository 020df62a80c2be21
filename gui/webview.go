//go:build gui

package gui

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/webview/webview"
)

// WebView is a WindowBackend that uses the WebView library
var WebView WindowBackend = webviewbackend{}

type webviewbackend struct{}

// webviewBinding is the name of the javascript function that reports keys to go
const webviewBinding = "gogoKey"

// webviewPage is the page shown in the capture window.
// Modifier bits are filled in from package key.
var webviewPage = fmt.Sprintf(`<!doctype html>
<html><body style="margin:0;background:#3c6e71;user-select:none"><script>
function mods(e) {
	let m = 0;
	if (e.shiftKey) m |= %d;
	if (e.ctrlKey) m |= %d;
	if (e.altKey) m |= %d;
	if (e.metaKey) m |= %d;
	if (e.getModifierState('NumLock')) m |= %d;
	if (e.getModifierState('CapsLock')) m |= %d;
	return m;
}
function send(e, pressed) {
	e.preventDefault();
	const symbol = e.key.length === 1 ? e.key.toUpperCase() : e.key;
	window.%s(symbol, e.keyCode, mods(e), pressed, e.repeat);
}
window.addEventListener('keydown', e => send(e, true));
window.addEventListener('keyup', e => send(e, false));
</script></body></html>`, key.LShift, key.LCtrl, key.LAlt, key.LGui, key.Num, key.Caps, webviewBinding)

func (webviewbackend) create(params WindowParams, sink func(key.Native)) (interface{}, error) {
	w := webview.New(false)
	if w == nil {
		return nil, errors.New("unable to create webview")
	}
	w.SetTitle(params.Title)
	w.SetSize(params.Width, params.Height, webview.HintFixed)

	err := w.Bind(webviewBinding, func(symbol string, code int, mods int, pressed bool, repeat bool) error {
		kind := key.KindKeyUp
		if pressed {
			kind = key.KindKeyDown
		}
		sink(key.Native{
			Kind:      kind,
			Symbol:    symbol,
			Code:      code,
			Modifiers: key.Modifier(mods),
			Repeat:    repeat,
		})
		return nil
	})
	if err != nil {
		w.Destroy()
		return nil, errors.Wrap(err, "unable to bind key listener")
	}

	w.Navigate("data:text/html," + url.PathEscape(webviewPage))
	return w, nil
}

func (webviewbackend) run(ww interface{}) {
	ww.(webview.WebView).Run()
}

func (webviewbackend) destroy(ww interface{}) {
	ww.(webview.WebView).Destroy()
}

func (webviewbackend) requestClose(ww interface{}) {
	ww.(webview.WebView).Terminate()
}
