package mirror

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/notify"
	"github.com/bigkaa/dicri-console/internal/testutil/fakeapi"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// actorBox — изменяемый ActorSource для тестов.
type actorBox struct {
	mu    sync.Mutex
	actor *model.Actor
}

func (b *actorBox) Current() *model.Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.actor
}

func (b *actorBox) set(a *model.Actor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actor = a
}

type fixture struct {
	api    *fakeapi.Server
	users  fakeapi.Users
	actors *actorBox
	feed   *notify.Feed
	exps   *Expedientes
	inds   *Indicios
}

func setup(t *testing.T) *fixture {
	t.Helper()
	api := fakeapi.New(t)
	users := api.SeedUsers()
	client, err := apiclient.New(api.URL(), "", 5*time.Second, "/health", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	actors := &actorBox{}
	feed := notify.NewFeed(50, time.Minute, testLogger())
	return &fixture{
		api:    api,
		users:  users,
		actors: actors,
		feed:   feed,
		exps:   NewExpedientes(client, actors, feed, 16, time.Minute, testLogger()),
		inds:   NewIndicios(client, actors, feed, testLogger()),
	}
}

func ptr[T any](v T) *T { return &v }

// seedBoard — дела в разных состояниях и с разными владельцами.
func (f *fixture) seedBoard() {
	f.api.SeedExpediente(model.Expediente{ID: 1, FileNumber: "EXP-001", TechnicianID: f.users.Technician.ID, State: model.StateDrafting})
	f.api.SeedExpediente(model.Expediente{ID: 2, FileNumber: "EXP-002", TechnicianID: f.users.Technician2.ID, State: model.StateDrafting})
	f.api.SeedExpediente(model.Expediente{ID: 3, FileNumber: "EXP-003", TechnicianID: f.users.Technician.ID, State: model.StateInReview})
	f.api.SeedExpediente(model.Expediente{ID: 4, FileNumber: "EXP-004", TechnicianID: f.users.Technician2.ID, State: model.StateInReview, CoordinatorID: ptr(f.users.Coordinator.ID)})
	f.api.SeedExpediente(model.Expediente{ID: 5, FileNumber: "EXP-005", TechnicianID: f.users.Technician2.ID, State: model.StateInReview, CoordinatorID: ptr(f.users.Coordinator2.ID)})
}

func ids(items []model.Expediente) []int64 {
	out := make([]int64, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestExpedientes_RoleFilter проверяет фильтр видимости по роли после загрузки.
func TestExpedientes_RoleFilter(t *testing.T) {
	tests := []struct {
		name string
		user func(fakeapi.Users) model.Usuario
		want []int64
	}{
		{"технический специалист видит свои", func(u fakeapi.Users) model.Usuario { return u.Technician }, []int64{1, 3}},
		{"второй технический специалист", func(u fakeapi.Users) model.Usuario { return u.Technician2 }, []int64{2, 4, 5}},
		{"координатор видит свои и свободные", func(u fakeapi.Users) model.Usuario { return u.Coordinator }, []int64{3, 4}},
		{"второй координатор", func(u fakeapi.Users) model.Usuario { return u.Coordinator2 }, []int64{3, 5}},
		{"неизвестная роль не видит ничего", func(u fakeapi.Users) model.Usuario { return u.Admin }, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.seedBoard()
			f.actors.set(fakeapi.Actor(tt.user(f.users)))

			if err := f.exps.Refresh(context.Background()); err != nil {
				t.Fatalf("Ошибка Refresh: %v", err)
			}
			if got := ids(f.exps.Items()); !equalIDs(got, tt.want) {
				t.Errorf("ожидались %v, получены %v", tt.want, got)
			}
		})
	}
}

// TestExpedientes_NoActor проверяет, что без пользователя запросов нет.
func TestExpedientes_NoActor(t *testing.T) {
	f := setup(t)
	f.seedBoard()

	if err := f.exps.Refresh(context.Background()); err != nil {
		t.Fatalf("Ошибка Refresh: %v", err)
	}
	if len(f.exps.Items()) != 0 {
		t.Error("без пользователя зеркало должно быть пустым")
	}
	if f.api.TotalCalls() != 0 {
		t.Errorf("ожидалось 0 запросов, выполнено %d", f.api.TotalCalls())
	}
}

// TestExpedientes_RefreshReentrancy проверяет, что повторный Refresh во время
// загрузки не запускает второй запрос.
func TestExpedientes_RefreshReentrancy(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.actors.set(fakeapi.Actor(f.users.Technician))

	entered, release := f.api.HoldList()
	defer release()

	done := make(chan error, 1)
	go func() { done <- f.exps.Refresh(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("первая загрузка не дошла до сервера")
	}

	if !f.exps.Loading() {
		t.Error("ожидался признак загрузки")
	}
	if err := f.exps.Refresh(context.Background()); err != nil {
		t.Errorf("повторный Refresh должен вернуть nil, получено %v", err)
	}
	release()

	if err := <-done; err != nil {
		t.Fatalf("Ошибка первой загрузки: %v", err)
	}
	if n := f.api.Calls(fakeapi.RouteListExpedientes); n != 1 {
		t.Errorf("ожидался 1 запрос списка, выполнено %d", n)
	}
	if f.exps.Loading() {
		t.Error("загрузка должна завершиться")
	}
	if got := ids(f.exps.Items()); !equalIDs(got, []int64{1, 3}) {
		t.Errorf("неожиданное содержимое зеркала: %v", got)
	}
}

// TestExpedientes_LogoutDuringLoad проверяет, что результат загрузки,
// начатой до выхода, отбрасывается.
func TestExpedientes_LogoutDuringLoad(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.actors.set(fakeapi.Actor(f.users.Technician))

	entered, release := f.api.HoldList()
	defer release()

	done := make(chan error, 1)
	go func() { done <- f.exps.Refresh(context.Background()) }()
	<-entered

	f.actors.set(nil)
	f.exps.OnIdentityChange(context.Background(), nil)
	release()

	if err := <-done; err != nil {
		t.Fatalf("Ошибка Refresh: %v", err)
	}
	if len(f.exps.Items()) != 0 {
		t.Errorf("зеркало должно остаться пустым, получено %v", ids(f.exps.Items()))
	}
}

// TestExpedientes_IdentitySwitchDuringLoad проверяет, что вход нового
// пользователя во время чужой загрузки запускает собственную загрузку.
func TestExpedientes_IdentitySwitchDuringLoad(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	ctx := context.Background()
	f.actors.set(fakeapi.Actor(f.users.Technician))

	entered, release := f.api.HoldList()
	defer release()

	done := make(chan error, 1)
	go func() { done <- f.exps.Refresh(ctx) }()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("загрузка не дошла до сервера")
	}

	f.actors.set(nil)
	f.exps.OnIdentityChange(ctx, nil)
	coord := fakeapi.Actor(f.users.Coordinator)
	f.actors.set(coord)
	f.exps.OnIdentityChange(ctx, coord)

	if got := ids(f.exps.Items()); !equalIDs(got, []int64{3, 4}) {
		t.Errorf("после входа координатора ожидались [3 4], получены %v", got)
	}
	if f.exps.Loading() {
		t.Error("загрузка прошлого пользователя не должна считаться текущей")
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("Ошибка прошлой загрузки: %v", err)
	}
	if n := f.api.Calls(fakeapi.RouteListExpedientes); n != 2 {
		t.Errorf("ожидалось 2 запроса списка, выполнено %d", n)
	}
	if got := ids(f.exps.Items()); !equalIDs(got, []int64{3, 4}) {
		t.Errorf("поздний ответ не должен менять зеркало, получены %v", got)
	}
	if f.exps.Loading() {
		t.Error("загрузка должна завершиться")
	}
}

// TestExpedientes_LoadFailure проверяет ошибку загрузки и уведомление.
func TestExpedientes_LoadFailure(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.actors.set(fakeapi.Actor(f.users.Technician))
	ctx := context.Background()

	if err := f.exps.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	f.feed.Drain()

	f.api.Fail(fakeapi.RouteListExpedientes, http.StatusInternalServerError, "")
	err := f.exps.Refresh(ctx)
	if !fault.Is(err, fault.KindRemote) {
		t.Fatalf("ожидался REMOTE_FAILURE, получено %v", err)
	}
	if f.exps.Err() == nil {
		t.Error("Err() должен вернуть ошибку загрузки")
	}
	if got := ids(f.exps.Items()); !equalIDs(got, []int64{1, 3}) {
		t.Errorf("при ошибке загрузки прежнее содержимое сохраняется, получено %v", got)
	}
	notes := f.feed.Drain()
	if len(notes) != 1 || notes[0].Level != notify.LevelError {
		t.Errorf("ожидалось одно уведомление об ошибке, получено %+v", notes)
	}

	f.api.Recover(fakeapi.RouteListExpedientes)
	if err := f.exps.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if f.exps.Err() != nil {
		t.Error("после успешной загрузки Err() должен быть nil")
	}
}

// TestExpedientes_WriteRefreshes проверяет, что успешная запись
// выполняет ровно один вызов и перезагружает зеркало.
func TestExpedientes_WriteRefreshes(t *testing.T) {
	f := setup(t)
	f.actors.set(fakeapi.Actor(f.users.Technician))
	ctx := context.Background()

	err := f.exps.Create(ctx, model.CreateExpedienteInput{
		FileNumber:   "EXP-100",
		Description:  "Robo en bodega",
		TechnicianID: f.users.Technician.ID,
		State:        model.StateDrafting,
	})
	if err != nil {
		t.Fatalf("Ошибка Create: %v", err)
	}
	if n := f.api.Calls(fakeapi.RouteCreateExpediente); n != 1 {
		t.Errorf("ожидался 1 вызов создания, выполнено %d", n)
	}
	if n := f.api.Calls(fakeapi.RouteListExpedientes); n != 1 {
		t.Errorf("ожидалась 1 перезагрузка, выполнено %d", n)
	}
	items := f.exps.Items()
	if len(items) != 1 || items[0].FileNumber != "EXP-100" {
		t.Errorf("новое дело должно появиться в зеркале, получено %+v", items)
	}
	notes := f.feed.Drain()
	if len(notes) != 1 || notes[0].Level != notify.LevelSuccess {
		t.Errorf("ожидалось уведомление об успехе, получено %+v", notes)
	}
}

// TestExpedientes_WriteFailure проверяет, что при ошибке записи зеркало не меняется.
func TestExpedientes_WriteFailure(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"сообщение сервера", "El expediente no está en registro", "El expediente no está en registro"},
		{"без сообщения", "", "ошибка отправки на проверку"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.seedBoard()
			f.actors.set(fakeapi.Actor(f.users.Technician))
			ctx := context.Background()
			if err := f.exps.Refresh(ctx); err != nil {
				t.Fatal(err)
			}
			f.feed.Drain()
			before := f.api.Calls(fakeapi.RouteListExpedientes)

			f.api.Fail(fakeapi.RouteSubmit, http.StatusBadRequest, tt.message)
			err := f.exps.SubmitForReview(ctx, 1, f.users.Coordinator.ID)
			if !fault.Is(err, fault.KindRemote) {
				t.Fatalf("ожидался REMOTE_FAILURE, получено %v", err)
			}
			if got := fault.MessageOf(err, ""); got != tt.want {
				t.Errorf("сообщение: ожидалось %q, получено %q", tt.want, got)
			}
			if n := f.api.Calls(fakeapi.RouteListExpedientes); n != before {
				t.Errorf("после ошибки записи перезагрузки быть не должно")
			}
			e, _ := f.exps.Find(1)
			if e.State != model.StateDrafting {
				t.Errorf("зеркало не должно меняться, состояние %s", e.State)
			}
			notes := f.feed.Drain()
			if len(notes) != 1 || notes[0].Message != tt.want {
				t.Errorf("ожидалось уведомление %q, получено %+v", tt.want, notes)
			}
		})
	}
}

// TestExpedientes_OnIdentityChange проверяет вход и выход.
func TestExpedientes_OnIdentityChange(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	ctx := context.Background()

	coord := fakeapi.Actor(f.users.Coordinator)
	f.actors.set(coord)
	f.exps.OnIdentityChange(ctx, coord)
	if got := ids(f.exps.Items()); !equalIDs(got, []int64{3, 4}) {
		t.Errorf("после входа ожидались [3 4], получены %v", got)
	}

	calls := f.api.TotalCalls()
	f.actors.set(nil)
	f.exps.OnIdentityChange(ctx, nil)
	if len(f.exps.Items()) != 0 {
		t.Error("после выхода зеркало должно быть пустым")
	}
	if f.api.TotalCalls() != calls {
		t.Error("выход не должен делать запросов")
	}
}

// TestExpedientes_Detail проверяет кэш карточек и фильтр видимости.
func TestExpedientes_Detail(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.actors.set(fakeapi.Actor(f.users.Technician))
	ctx := context.Background()

	e, err := f.exps.Detail(ctx, 1)
	if err != nil {
		t.Fatalf("Ошибка Detail: %v", err)
	}
	if e.FileNumber != "EXP-001" {
		t.Errorf("неожиданное дело: %+v", e)
	}
	if _, err := f.exps.Detail(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if n := f.api.Calls(fakeapi.RouteGetExpediente); n != 1 {
		t.Errorf("повторное чтение должно идти из кэша, запросов %d", n)
	}

	if _, err := f.exps.Detail(ctx, 2); !fault.Is(err, fault.KindNotFound) {
		t.Errorf("чужое дело: ожидался NOT_FOUND, получено %v", err)
	}
	if _, err := f.exps.Detail(ctx, 99); !fault.Is(err, fault.KindNotFound) {
		t.Errorf("несуществующее дело: ожидался NOT_FOUND, получено %v", err)
	}

	// запись сбрасывает кэш
	if err := f.exps.Update(ctx, 1, model.UpdateExpedienteInput{FileNumber: "EXP-001", Description: "Nueva", State: model.StateDrafting}); err != nil {
		t.Fatal(err)
	}
	e, err = f.exps.Detail(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if e.Description != "Nueva" {
		t.Errorf("после записи ожидалось свежее описание, получено %q", e.Description)
	}
	if n := f.api.Calls(fakeapi.RouteGetExpediente); n != 4 {
		t.Errorf("ожидалось 4 запроса карточки, выполнено %d", n)
	}

	f.actors.set(nil)
	if _, err := f.exps.Detail(ctx, 1); !fault.Is(err, fault.KindUnauthenticated) {
		t.Errorf("без пользователя ожидался UNAUTHENTICATED, получено %v", err)
	}
}

// TestIndicios_Parent проверяет выбор дела и пустое зеркало без родителя.
func TestIndicios_Parent(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 1, Description: "Cuchillo", Location: "Bodega A", TechnicianID: f.users.Technician.ID})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 1, Description: "Guante", Location: "Bodega A", TechnicianID: f.users.Technician.ID})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 2, Description: "Celular", Location: "Bodega B", TechnicianID: f.users.Technician2.ID})
	f.actors.set(fakeapi.Actor(f.users.Technician))
	ctx := context.Background()

	if err := f.inds.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.inds.Items()) != 0 || f.api.Calls(fakeapi.RouteListIndicios) != 0 {
		t.Error("без выбранного дела зеркало пусто и запросов нет")
	}

	if err := f.inds.SetParent(ctx, ptr(int64(1))); err != nil {
		t.Fatal(err)
	}
	if n := len(f.inds.Items()); n != 2 {
		t.Errorf("ожидалось 2 индиция, получено %d", n)
	}

	// тот же родитель не перезагружает
	if err := f.inds.SetParent(ctx, ptr(int64(1))); err != nil {
		t.Fatal(err)
	}
	if n := f.api.Calls(fakeapi.RouteListIndicios); n != 1 {
		t.Errorf("ожидался 1 запрос, выполнено %d", n)
	}

	if err := f.inds.SetParent(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if len(f.inds.Items()) != 0 || f.inds.Parent() != nil {
		t.Error("nil-родитель очищает зеркало")
	}
	if n := f.api.Calls(fakeapi.RouteListIndicios); n != 1 {
		t.Errorf("nil-родитель не должен делать запросов, выполнено %d", n)
	}
}

// TestIndicios_SetParentDuringLoad проверяет, что смена дела во время
// загрузки индиций прошлого дела загружает индиции нового.
func TestIndicios_SetParentDuringLoad(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 3, Description: "Cuchillo", Location: "Bodega A", TechnicianID: f.users.Technician.ID})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 4, Description: "Celular", Location: "Bodega B", TechnicianID: f.users.Technician2.ID})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 4, Description: "Cargador", Location: "Bodega B", TechnicianID: f.users.Technician2.ID})
	f.actors.set(fakeapi.Actor(f.users.Coordinator))
	ctx := context.Background()

	entered, release := f.api.Hold(fakeapi.RouteListIndicios)
	defer release()

	done := make(chan error, 1)
	go func() { done <- f.inds.SetParent(ctx, ptr(int64(3))) }()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("загрузка индиций не дошла до сервера")
	}

	if err := f.inds.SetParent(ctx, ptr(int64(4))); err != nil {
		t.Fatalf("Ошибка SetParent: %v", err)
	}
	if n := len(f.inds.Items()); n != 2 {
		t.Errorf("ожидалось 2 индиция дела 4, получено %d", n)
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("Ошибка прошлой загрузки: %v", err)
	}
	items := f.inds.Items()
	if len(items) != 2 {
		t.Fatalf("поздний ответ не должен менять зеркало, получено %d", len(items))
	}
	for _, it := range items {
		if it.ExpedienteID != 4 {
			t.Errorf("индиций чужого дела в зеркале: %+v", it)
		}
	}
	if n := f.api.Calls(fakeapi.RouteListIndicios); n != 2 {
		t.Errorf("ожидалось 2 запроса индиций, выполнено %d", n)
	}
	if f.inds.Loading() {
		t.Error("загрузка должна завершиться")
	}
}

// TestIndicios_Filter проверяет видимость индиций по роли.
func TestIndicios_Filter(t *testing.T) {
	f := setup(t)
	f.api.SeedExpediente(model.Expediente{ID: 7, FileNumber: "EXP-007", TechnicianID: f.users.Technician.ID, State: model.StateInReview})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 7, Description: "Arma", Location: "A", TechnicianID: f.users.Technician.ID})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 7, Description: "Casquillo", Location: "A", TechnicianID: f.users.Technician2.ID})
	ctx := context.Background()

	f.actors.set(fakeapi.Actor(f.users.Technician))
	got, err := f.inds.IndiciosOf(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Description != "Arma" {
		t.Errorf("технический специалист видит только свои индиции, получено %+v", got)
	}
	if n := f.api.Calls(fakeapi.RouteListIndicios); n != 1 {
		t.Errorf("без выбранного дела ожидался разовый запрос, выполнено %d", n)
	}

	// зеркало выбранного дела используется без запроса
	if err := f.inds.SetParent(ctx, ptr(int64(7))); err != nil {
		t.Fatal(err)
	}
	if _, err := f.inds.IndiciosOf(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if n := f.api.Calls(fakeapi.RouteListIndicios); n != 2 {
		t.Errorf("ожидалось 2 запроса, выполнено %d", n)
	}
	if f.inds.Parent() == nil || *f.inds.Parent() != 7 {
		t.Error("IndiciosOf не должен менять выбранное дело")
	}
	if err := f.inds.SetParent(ctx, nil); err != nil {
		t.Fatal(err)
	}

	f.actors.set(fakeapi.Actor(f.users.Coordinator))
	got, err = f.inds.IndiciosOf(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("координатор видит все индиции, получено %d", len(got))
	}
}

// TestIndicios_Mutations проверяет запись и перезагрузку индиций.
func TestIndicios_Mutations(t *testing.T) {
	f := setup(t)
	f.seedBoard()
	f.actors.set(fakeapi.Actor(f.users.Technician))
	ctx := context.Background()

	if err := f.inds.SetParent(ctx, ptr(int64(1))); err != nil {
		t.Fatal(err)
	}
	err := f.inds.Create(ctx, model.CreateIndicioInput{
		ExpedienteID: 1,
		Description:  "Huella",
		Location:     "Laboratorio",
		TechnicianID: f.users.Technician.ID,
	})
	if err != nil {
		t.Fatalf("Ошибка Create: %v", err)
	}
	items := f.inds.Items()
	if len(items) != 1 {
		t.Fatalf("ожидался 1 индиций, получено %d", len(items))
	}

	if err := f.inds.Update(ctx, items[0].ID, model.UpdateIndicioInput{Description: "Huella parcial", Location: "Laboratorio"}); err != nil {
		t.Fatal(err)
	}
	if got := f.inds.Items()[0].Description; got != "Huella parcial" {
		t.Errorf("ожидалось обновлённое описание, получено %q", got)
	}

	if err := f.inds.Delete(ctx, items[0].ID); err != nil {
		t.Fatal(err)
	}
	if len(f.inds.Items()) != 0 {
		t.Error("после удаления зеркало должно быть пустым")
	}

	f.api.Fail(fakeapi.RouteDeleteIndicio, http.StatusNotFound, "Indicio no encontrado")
	if err := f.inds.Delete(ctx, 42); !fault.Is(err, fault.KindRemote) {
		t.Errorf("ожидался REMOTE_FAILURE, получено %v", err)
	}
}
