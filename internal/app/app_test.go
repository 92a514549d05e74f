package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskboard/internal/service"
	"taskboard/internal/testutil"
)

func newTestApp(t *testing.T) (*App, *testutil.FakeService) {
	t.Helper()
	fake := testutil.NewSignedInFakeService()
	return New(fake, Options{}), fake
}

func lastNotice(t *testing.T, a *App) Notice {
	t.Helper()
	ns := a.Notices().Drain()
	if len(ns) == 0 {
		t.Fatal("expected a notice")
	}
	return ns[len(ns)-1]
}

func TestScenario_CreateEditDelete(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if err := a.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if len(a.Tasks()) != 0 {
		t.Fatalf("expected empty list, got %+v", a.Tasks())
	}

	a.SetText("Buy milk", "2%")
	if err := a.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := lastNotice(t, a); n.Kind != NoticeInfo || n.Text != MsgTaskAdded {
		t.Errorf("unexpected notice %+v", n)
	}
	tasks := a.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Description != "2%" || tasks[0].ID == 0 {
		t.Fatalf("unexpected list after create: %+v", tasks)
	}
	if _, ok := a.Mode().(CreateMode); !ok || a.Form() != (Form{}) {
		t.Fatalf("expected empty create form, got %v %+v", a.Mode(), a.Form())
	}
	id := tasks[0].ID

	if err := a.EditByID(id); err != nil {
		t.Fatal(err)
	}
	if got, ok := EditingID(a.Mode()); !ok || got != id {
		t.Fatalf("expected editing(%d), got %v", id, a.Mode())
	}
	form := a.Form()
	a.SetText("Buy oat milk", form.Description)
	if err := a.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := lastNotice(t, a); n.Text != MsgTaskUpdated {
		t.Errorf("unexpected notice %+v", n)
	}
	tasks = a.Tasks()
	if len(tasks) != 1 || tasks[0].ID != id || tasks[0].Title != "Buy oat milk" || tasks[0].Description != "2%" {
		t.Fatalf("unexpected list after update: %+v", tasks)
	}
	if _, ok := a.Mode().(CreateMode); !ok {
		t.Errorf("expected create mode after update, got %v", a.Mode())
	}

	if err := a.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := lastNotice(t, a); n.Text != MsgTaskDeleted {
		t.Errorf("unexpected notice %+v", n)
	}
	if len(a.Tasks()) != 0 {
		t.Errorf("expected empty list after delete, got %+v", a.Tasks())
	}
}

func TestSubmit_ValidationSendsNoRequest(t *testing.T) {
	cases := []struct{ title, desc string }{
		{"", "d"},
		{"t", ""},
		{"   ", "d"},
		{"t", "\n\t"},
		{"", ""},
	}
	for _, tc := range cases {
		a, fake := newTestApp(t)
		a.SetText(tc.title, tc.desc)

		err := a.Submit(context.Background())
		if !IsValidation(err) {
			t.Fatalf("%q/%q: expected validation error, got %v", tc.title, tc.desc, err)
		}
		if fake.Calls("InsertTask")+fake.Calls("UpdateTask")+fake.Calls("ListTasks") != 0 {
			t.Errorf("%q/%q: expected no backend request", tc.title, tc.desc)
		}
		if n := lastNotice(t, a); n.Kind != NoticeValidation || n.Text != MsgFillRequired {
			t.Errorf("unexpected notice %+v", n)
		}
		if f := a.Form(); f.Title != tc.title || f.Description != tc.desc {
			t.Errorf("form changed: %+v", f)
		}
	}
}

func TestSubmit_ValidationInEditModeKeepsBinding(t *testing.T) {
	a, fake := newTestApp(t)
	task := fake.AddTask("a", "b")
	a.Edit(task)
	a.SetText("", "b")

	if err := a.Submit(context.Background()); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if id, ok := EditingID(a.Mode()); !ok || id != task.ID {
		t.Errorf("expected binding kept, got %v", a.Mode())
	}
	if fake.Calls("UpdateTask") != 0 {
		t.Error("expected no update request")
	}
}

func TestSubmit_BackendFailureLeavesStateUntouched(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()
	fake.AddTask("existing", "x")
	_ = a.Refresh(ctx)

	fake.InsertErr = errors.New("constraint violation")
	a.SetText("new", "task")
	err := a.Submit(ctx)
	if err == nil || IsValidation(err) {
		t.Fatalf("expected backend error, got %v", err)
	}
	n := lastNotice(t, a)
	if n.Kind != NoticeError || n.Text != MsgSaveFailed {
		t.Errorf("unexpected notice %+v", n)
	}
	if strings.Contains(n.Text, "constraint") {
		t.Error("notice must not carry the cause")
	}
	if f := a.Form(); f.Title != "new" || f.Description != "task" {
		t.Errorf("form changed: %+v", f)
	}
	if len(a.Tasks()) != 1 {
		t.Errorf("cache changed: %+v", a.Tasks())
	}
	if fake.Calls("ListTasks") != 1 {
		t.Errorf("expected no refresh after failure, got %d lists", fake.Calls("ListTasks"))
	}
}

func TestUpdate_MissingIDFails(t *testing.T) {
	a, _ := newTestApp(t)
	a.Edit(service.Task{ID: 99, Title: "ghost", Description: "gone"})

	err := a.Submit(context.Background())
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := lastNotice(t, a); n.Text != MsgSaveFailed {
		t.Errorf("unexpected notice %+v", n)
	}
}

func TestEdit_PopulatesPreviews(t *testing.T) {
	a, _ := newTestApp(t)
	task := service.Task{ID: 4, Title: "t", Description: "d", ImageURL: "http://i/1.png", VideoURL: "http://v/1.mp4"}
	a.Edit(task)

	want := Form{
		Title: "t", Description: "d",
		ImageURL: "http://i/1.png", VideoURL: "http://v/1.mp4",
		ImagePreview: "http://i/1.png", VideoPreview: "http://v/1.mp4",
	}
	if got := a.Form(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// Editing another record rebinds and replaces everything.
	a.Edit(service.Task{ID: 5, Title: "u", Description: "e"})
	if id, _ := EditingID(a.Mode()); id != 5 {
		t.Errorf("expected editing(5), got %v", a.Mode())
	}
	if f := a.Form(); f.ImagePreview != "" || f.VideoURL != "" {
		t.Errorf("expected previews cleared, got %+v", f)
	}
}

func TestEditByID_Unknown(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.EditByID(7); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, ok := a.Mode().(CreateMode); !ok {
		t.Error("mode must not change")
	}
}

func TestCancel(t *testing.T) {
	a, _ := newTestApp(t)
	a.Edit(service.Task{ID: 1, Title: "t", Description: "d"})
	a.Cancel()
	if _, ok := a.Mode().(CreateMode); !ok || a.Form() != (Form{}) {
		t.Errorf("expected empty create form, got %v %+v", a.Mode(), a.Form())
	}
}

func TestDelete_EditedTaskResetsForm(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()
	task := fake.AddTask("a", "b")
	other := fake.AddTask("c", "d")
	_ = a.Refresh(ctx)

	a.Edit(task)
	if err := a.Delete(ctx, other.ID); err != nil {
		t.Fatal(err)
	}
	if id, ok := EditingID(a.Mode()); !ok || id != task.ID {
		t.Fatalf("deleting another task must keep the binding, got %v", a.Mode())
	}

	if err := a.Delete(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Mode().(CreateMode); !ok || a.Form() != (Form{}) {
		t.Errorf("expected create mode after deleting the edited task, got %v %+v", a.Mode(), a.Form())
	}
}

func TestDelete_Failure(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()
	task := fake.AddTask("a", "b")
	_ = a.Refresh(ctx)
	fake.DeleteErr = errors.New("network down")

	if err := a.Delete(ctx, task.ID); err == nil {
		t.Fatal("expected error")
	}
	if n := lastNotice(t, a); n.Kind != NoticeError || n.Text != MsgDeleteFailed {
		t.Errorf("unexpected notice %+v", n)
	}
	if len(a.Tasks()) != 1 {
		t.Error("cache must be untouched")
	}
}

func TestRefresh_FailureKeepsCollection(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()
	fake.AddTask("a", "b")
	_ = a.Refresh(ctx)

	fake.ListErr = errors.New("timeout")
	if err := a.Refresh(ctx); err == nil {
		t.Fatal("expected error")
	}
	if len(a.Tasks()) != 1 {
		t.Errorf("expected prior collection kept, got %+v", a.Tasks())
	}
	if n := lastNotice(t, a); n.Text != MsgLoadFailed {
		t.Errorf("unexpected notice %+v", n)
	}
}

func TestLastWriteWins(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	task := fake.AddTask("original", "d")
	ctx := context.Background()

	first := New(fake, Options{})
	second := New(fake, Options{})
	first.Edit(task)
	second.Edit(task)

	first.SetText("from first", "d")
	second.SetText("from second", "d")
	if err := first.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := second.Submit(ctx); err != nil {
		t.Fatal(err)
	}

	tasks := fake.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "from second" {
		t.Errorf("expected last write to win, got %+v", tasks)
	}
}

func TestAttach(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()

	if err := a.Attach(ctx, service.CategoryImage, "Photo.PNG", strings.NewReader("\x89PNG\r\n\x1a\n")); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	f := a.Form()
	if !strings.HasPrefix(f.ImageURL, testutil.PublicBase+"images/") || !strings.HasSuffix(f.ImageURL, ".png") {
		t.Errorf("unexpected image url %q", f.ImageURL)
	}
	if f.ImagePreview != f.ImageURL {
		t.Errorf("expected preview to follow url, got %q", f.ImagePreview)
	}
	if a.Uploading() {
		t.Error("expected no upload in flight")
	}

	// A failed video upload does not roll back the image and keeps the
	// previous video values.
	fake.UploadErr = errors.New("bucket full")
	if err := a.Attach(ctx, service.CategoryVideo, "clip.mp4", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
	if n := lastNotice(t, a); n.Kind != NoticeError || n.Text != MsgUploadFailed {
		t.Errorf("unexpected notice %+v", n)
	}
	g := a.Form()
	if g.ImageURL != f.ImageURL || g.VideoURL != "" || g.VideoPreview != "" {
		t.Errorf("unexpected form after failed upload: %+v", g)
	}
	if len(fake.Objects()) != 1 {
		t.Errorf("expected the image object kept, got %v", fake.Objects())
	}
}

func TestAttach_WrongTypeKeepsPreviousValue(t *testing.T) {
	a, fake := newTestApp(t)
	a.Edit(service.Task{ID: 1, Title: "t", Description: "d", ImageURL: "http://old.png"})

	err := a.Attach(context.Background(), service.CategoryImage, "notes.txt", strings.NewReader("hello"))
	if !errors.Is(err, ErrMediaType) {
		t.Fatalf("expected ErrMediaType, got %v", err)
	}
	if f := a.Form(); f.ImageURL != "http://old.png" || f.ImagePreview != "http://old.png" {
		t.Errorf("expected previous image kept, got %+v", f)
	}
	if fake.Calls("UploadObject") != 0 {
		t.Error("expected no upload request")
	}
}

func TestSubmit_WithAttachments(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()
	a.SetText("with media", "d")
	if err := a.Attach(ctx, service.CategoryImage, "a.png", strings.NewReader("png")); err != nil {
		t.Fatal(err)
	}
	url := a.Form().ImageURL
	if err := a.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	tasks := fake.Tasks()
	if len(tasks) != 1 || tasks[0].ImageURL != url {
		t.Errorf("expected attachment persisted, got %+v", tasks)
	}
	if a.Form().ImagePreview != "" {
		t.Error("expected previews cleared after submit")
	}
}

func TestSubmit_FailureAfterAttachKeepsUpload(t *testing.T) {
	a, fake := newTestApp(t)
	ctx := context.Background()

	if err := a.Attach(ctx, service.CategoryImage, "cat.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	objects := fake.Objects()
	if len(objects) != 1 {
		t.Fatalf("expected one object, got %v", objects)
	}
	imageURL := a.Form().ImageURL

	fake.InsertErr = errors.New("insert failed")
	a.SetText("pic", "d")
	if err := a.Submit(ctx); err == nil {
		t.Fatal("expected insert error")
	}
	if n := lastNotice(t, a); n.Kind != NoticeError || n.Text != MsgSaveFailed {
		t.Errorf("unexpected notice %+v", n)
	}
	if f := a.Form(); f.ImageURL != imageURL || f.ImagePreview != imageURL || f.Title != "pic" {
		t.Errorf("expected form to keep the upload, got %+v", f)
	}
	if got := fake.Objects(); len(got) != 1 || got[0] != objects[0] {
		t.Errorf("expected uploaded object to remain, got %v", got)
	}

	// The retry reuses the stored object instead of uploading again.
	fake.InsertErr = nil
	if err := a.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if tasks := fake.Tasks(); len(tasks) != 1 || tasks[0].ImageURL != imageURL {
		t.Errorf("expected task with the kept image, got %+v", tasks)
	}
	if n := fake.Calls("UploadObject"); n != 1 {
		t.Errorf("expected a single upload, got %d", n)
	}
}

func TestClearAttachment(t *testing.T) {
	a, _ := newTestApp(t)
	a.Edit(service.Task{ID: 1, Title: "t", Description: "d", ImageURL: "i", VideoURL: "v"})
	a.ClearAttachment(service.CategoryVideo)
	f := a.Form()
	if f.VideoURL != "" || f.VideoPreview != "" || f.ImageURL != "i" {
		t.Errorf("unexpected form %+v", f)
	}
}

func TestThemeAndSnapshot(t *testing.T) {
	a, _ := newTestApp(t)
	if a.Theme() != ThemeDark {
		t.Fatalf("expected dark default, got %s", a.Theme())
	}
	if a.ToggleTheme() != ThemeLight || a.ToggleTheme() != ThemeDark {
		t.Fatal("toggle must alternate")
	}
	a.ToggleTheme()
	a.Edit(service.Task{ID: 3, Title: "t", Description: "d"})
	a.Notices().Notify(Notice{Kind: NoticeInfo, Text: MsgTaskAdded})

	snap := a.Snapshot()
	if snap.EditID != 3 || snap.Theme != ThemeLight || len(snap.Notices) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	b, _ := newTestApp(t)
	b.Restore(snap)
	if id, ok := EditingID(b.Mode()); !ok || id != 3 {
		t.Errorf("expected editing(3), got %v", b.Mode())
	}
	if b.Theme() != ThemeLight || b.Form().Title != "t" {
		t.Errorf("unexpected restored state: %s %+v", b.Theme(), b.Form())
	}
	if ns := b.Notices().Drain(); len(ns) != 1 || ns[0].Text != MsgTaskAdded {
		t.Errorf("unexpected restored notices %+v", ns)
	}

	b.Restore(Snapshot{})
	if _, ok := b.Mode().(CreateMode); !ok || b.Theme() != ThemeDark {
		t.Errorf("empty snapshot must restore defaults, got %v %s", b.Mode(), b.Theme())
	}
}

func TestCustomNotifier(t *testing.T) {
	var got []Notice
	a := New(testutil.NewFakeService(), Options{Notifier: NotifierFunc(func(n Notice) { got = append(got, n) })})
	_ = a.Submit(context.Background())
	if len(got) != 1 || got[0].Kind != NoticeValidation {
		t.Errorf("unexpected notices %+v", got)
	}
	if len(a.Notices().Pending()) != 0 {
		t.Error("default queue must stay empty")
	}
}
