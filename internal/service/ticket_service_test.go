package service

import (
	"context"
	"testing"

	"joyapos/internal/apierror"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTicketRepo keys tickets by (apartado, clave) like the real unique index.
type stubTicketRepo struct {
	tickets map[string]*model.Ticket
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{tickets: make(map[string]*model.Ticket)}
}

func claveMapa(apartadoID uuid.UUID, clave string) string {
	return apartadoID.String() + "|" + clave
}

func (r *stubTicketRepo) Upsert(_ context.Context, t *model.Ticket) (*model.Ticket, error) {
	k := claveMapa(t.ApartadoID, t.Clave)
	if existente, ok := r.tickets[k]; ok {
		return existente, nil
	}
	t.ID = uuid.New()
	r.tickets[k] = t
	return t, nil
}

func (r *stubTicketRepo) FindByClave(_ context.Context, apartadoID uuid.UUID, clave string) (*model.Ticket, error) {
	t, ok := r.tickets[claveMapa(apartadoID, clave)]
	if !ok {
		return nil, &apierror.NotFoundError{Recurso: "ticket"}
	}
	return t, nil
}

func (r *stubTicketRepo) ListByApartado(_ context.Context, apartadoID uuid.UUID) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range r.tickets {
		if t.ApartadoID == apartadoID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTicketRepo) Update(_ context.Context, t *model.Ticket) error {
	r.tickets[claveMapa(t.ApartadoID, t.Clave)] = t
	return nil
}

var _ repository.TicketRepository = (*stubTicketRepo)(nil)

// sembrarApartadoConAbonos stores an apartado (total 1380) with the given
// payment amounts in chronological order.
func sembrarApartadoConAbonos(t *testing.T, repo *stubApartadoRepo, montos ...string) (uuid.UUID, []model.Abono) {
	t.Helper()
	a := &model.Apartado{
		Tenant: tenantPrueba,
		Folio:  7,
		Tipo:   model.TipoApartado,
		Total:  dec("1380"),
		Estado: model.EstadoPendiente,
	}
	require.NoError(t, repo.Create(context.Background(), nil, a))
	for _, m := range montos {
		ab := &model.Abono{ApartadoID: a.ID, Monto: dec(m), Metodo: model.MetodoEfectivo}
		require.NoError(t, repo.CreateAbonoTx(context.Background(), nil, ab))
	}
	abonos, err := repo.ListAbonos(context.Background(), a.ID)
	require.NoError(t, err)
	return a.ID, abonos
}

func TestClaveAbono(t *testing.T) {
	repo := newStubApartadoRepo()
	_, abonos := sembrarApartadoConAbonos(t, repo, "300", "1080")

	// El primer abono cronológico conserva la clave legada "payment".
	assert.Equal(t, "payment", ClaveAbono(abonos, abonos[0].ID))
	assert.Equal(t, "payment-"+abonos[1].ID.String(), ClaveAbono(abonos, abonos[1].ID))
}

func TestRegenerarReproduceTripleIdentico(t *testing.T) {
	repo := newStubApartadoRepo()
	tickets := newStubTicketRepo()
	svc := NewTicketService(tickets, repo, "Joyería Esmeralda")

	apartadoID, abonos := sembrarApartadoConAbonos(t, repo, "300", "1080")

	primera, err := svc.Regenerar(context.Background(), apartadoID, abonos[1].ID)
	require.NoError(t, err)
	segunda, err := svc.Regenerar(context.Background(), apartadoID, abonos[1].ID)
	require.NoError(t, err)

	// La regeneración es pura sobre el historial: el triple no cambia.
	assert.True(t, dec("300").Equal(primera.PagadoAnterior))
	assert.True(t, dec("1380").Equal(primera.PagadoNuevo))
	assert.True(t, primera.SaldoNuevo.IsZero())
	assert.True(t, primera.PagadoAnterior.Equal(segunda.PagadoAnterior))
	assert.True(t, primera.PagadoNuevo.Equal(segunda.PagadoNuevo))
	assert.True(t, primera.SaldoNuevo.Equal(segunda.SaldoNuevo))

	// Y nunca duplica la fila: misma clave, un solo ticket.
	assert.Equal(t, primera.ID, segunda.ID)
	lista, err := svc.ListByApartado(context.Background(), apartadoID)
	require.NoError(t, err)
	assert.Len(t, lista, 1)
}

func TestRegenerarPrimerAbonoUsaClaveLegada(t *testing.T) {
	repo := newStubApartadoRepo()
	tickets := newStubTicketRepo()
	svc := NewTicketService(tickets, repo, "Joyería Esmeralda")

	apartadoID, abonos := sembrarApartadoConAbonos(t, repo, "300", "1080")

	resp, err := svc.Regenerar(context.Background(), apartadoID, abonos[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaveTicketLegacy, resp.Clave)
	assert.True(t, resp.PagadoAnterior.IsZero())
	assert.True(t, dec("300").Equal(resp.PagadoNuevo))
	assert.True(t, dec("1080").Equal(resp.SaldoNuevo))
}

func TestRegenerarResuelveClaveSaleAntigua(t *testing.T) {
	repo := newStubApartadoRepo()
	tickets := newStubTicketRepo()
	svc := NewTicketService(tickets, repo, "Joyería Esmeralda")

	apartadoID, abonos := sembrarApartadoConAbonos(t, repo, "300")

	// Fila histórica escrita con la ortografía vieja del primer pago.
	viejo := &model.Ticket{ApartadoID: apartadoID, Clave: model.ClaveTicketLegacySale, HTML: "<html>viejo</html>"}
	_, err := tickets.Upsert(context.Background(), viejo)
	require.NoError(t, err)

	resp, err := svc.Regenerar(context.Background(), apartadoID, abonos[0].ID)
	require.NoError(t, err)

	// Repara la fila "sale" en lugar de crear una segunda bajo "payment".
	assert.Equal(t, model.ClaveTicketLegacySale, resp.Clave)
	assert.NotEqual(t, "<html>viejo</html>", resp.HTML)
	lista, err := svc.ListByApartado(context.Background(), apartadoID)
	require.NoError(t, err)
	assert.Len(t, lista, 1)
}

func TestRegenerarAbonoInexistente(t *testing.T) {
	repo := newStubApartadoRepo()
	svc := NewTicketService(newStubTicketRepo(), repo, "Joyería Esmeralda")

	apartadoID, _ := sembrarApartadoConAbonos(t, repo, "300")

	_, err := svc.Regenerar(context.Background(), apartadoID, uuid.New())
	var nf *apierror.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCreateOrGetEsIdempotente(t *testing.T) {
	repo := newStubApartadoRepo()
	tickets := newStubTicketRepo()
	svc := NewTicketService(tickets, repo, "Joyería Esmeralda")

	apartadoID, _ := sembrarApartadoConAbonos(t, repo, "300")

	t1, err := svc.CreateOrGet(context.Background(), apartadoID, "payment", "<html>a</html>")
	require.NoError(t, err)
	t2, err := svc.CreateOrGet(context.Background(), apartadoID, "payment", "<html>b</html>")
	require.NoError(t, err)

	// La segunda llamada devuelve la fila existente sin sobrescribirla.
	assert.Equal(t, t1.ID, t2.ID)
	assert.Equal(t, "<html>a</html>", t2.HTML)
}
