package jsbridge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

func eventURL(key, event string) string {
	return "/_postcode/" + key + "/event/" + event
}

func TestInstance_Open(t *testing.T) {
	c := New(eventURL)
	inst := c.New(widget.Options{
		Key:        "k1",
		Width:      "100%",
		OnComplete: func(widget.Address) {},
	}).(*Instance)

	inst.Open(widget.OpenOptions{Q: widget.String("판교역로"), AutoClose: widget.Bool(true)})

	script := inst.Script()
	assert.True(t, strings.HasPrefix(script, "new kakao.Postcode(Object.assign("), script)
	assert.Contains(t, script, `"width":"100%"`)
	assert.Contains(t, script, `oncomplete:function(d){fetch("/_postcode/k1/event/complete"`)
	assert.NotContains(t, script, "onresize")
	assert.Contains(t, script, `.open({"q":"판교역로","autoClose":true});`)
}

func TestInstance_OpenWithoutCallbacks(t *testing.T) {
	inst := New(nil).New(widget.Options{}).(*Instance)
	inst.Open(widget.OpenOptions{})
	assert.Equal(t, "new kakao.Postcode({}).open({});", inst.Script())
}

func TestInstance_Embed(t *testing.T) {
	c := &Constructor{Namespace: "daum", EventURL: eventURL}
	inst := c.New(widget.Options{Key: "k2", OnClose: func(widget.CloseState) {}})
	anchor := widget.NewAnchor("postcode-1")

	inst.Embed(anchor, widget.EmbedOptions{Q: widget.String(""), AutoClose: widget.Bool(false)})

	content := anchor.Content()
	assert.True(t, strings.HasPrefix(content, "<script>new daum.Postcode("), content)
	assert.Contains(t, content, `onclose:function(d)`)
	assert.Contains(t, content, `.embed(document.getElementById("postcode-1"), {"q":"","autoClose":false});</script>`)
}

func TestInstance_EscapesScriptBreakout(t *testing.T) {
	inst := New(nil).New(widget.Options{})
	anchor := widget.NewAnchor("x")
	inst.Embed(anchor, widget.EmbedOptions{Q: widget.String("</script><b>")})

	assert.Equal(t, 1, strings.Count(anchor.Content(), "</script>"))
}

func TestExecutor(t *testing.T) {
	g := loader.NewGlobals()
	ctor := New(nil)
	exec := NewExecutor(g, ctor)

	err := exec.Execute(context.Background(), loader.Script{}, []byte("console.log(1)"))
	assert.ErrorIs(t, err, ErrNoConstructor)
	_, ok := g.Get(loader.PrimaryNamespace)
	assert.False(t, ok)

	require.NoError(t, exec.Execute(context.Background(), loader.Script{}, []byte("window.kakao.Postcode = function(){}")))
	got, ok := g.Get(loader.PrimaryNamespace)
	require.True(t, ok)
	assert.Same(t, ctor, got)
}

func TestExecutor_ThroughLoader(t *testing.T) {
	g := loader.NewGlobals()
	ctor := New(nil)
	doc := loader.NewDocument()
	fetch := loader.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return []byte("kakao.Postcode=function(){}"), nil
	})
	l := loader.New(
		loader.WithResolver(loader.NewNamespaceResolver(g)),
		loader.WithInjector(loader.NewScriptInjector(doc, fetch, NewExecutor(g, ctor))),
	)

	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, ctor, got)
	assert.Equal(t, loader.StatusReady, l.Status())
	assert.Equal(t, []string{loader.DefaultScriptURL}, doc.Sources())
}

func TestExecutor_CancelledContext(t *testing.T) {
	g := loader.NewGlobals()
	exec := NewExecutor(g, New(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, loader.Script{}, []byte("kakao.Postcode=function(){}"))
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := g.Get(loader.PrimaryNamespace)
	assert.False(t, ok)
}

func TestExecutor_LateBodyAfterTimeout(t *testing.T) {
	g := loader.NewGlobals()
	exec := NewExecutor(g, New(nil))
	doc := loader.NewDocument()

	finish := make(chan struct{})
	executed := make(chan error, 1)
	fetch := loader.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		<-finish
		return []byte("kakao.Postcode=function(){}"), nil
	})
	inj := loader.NewScriptInjector(doc, fetch, loader.ExecutorFunc(func(ctx context.Context, s loader.Script, body []byte) error {
		err := exec.Execute(ctx, s, body)
		executed <- err
		return err
	}))

	err := inj.Inject(context.Background(), loader.DefaultScriptURL, 20*time.Millisecond)
	require.True(t, loader.IsTimeout(err))
	assert.Empty(t, doc.Scripts())

	close(finish)
	assert.ErrorIs(t, <-executed, context.Canceled)
	_, ok := g.Get(loader.PrimaryNamespace)
	assert.False(t, ok)
}
