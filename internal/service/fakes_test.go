package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/objectstore"
)

// memState is the in-memory catalog behind the fake repositories.
type memState struct {
	products    map[uuid.UUID]model.Product
	categories  map[uuid.UUID]model.Category
	memberships map[uuid.UUID]map[uuid.UUID]bool
	prices      []model.Price
	inventory   map[uuid.UUID]model.Inventory
	images      map[uuid.UUID]model.ProductImage
	outbox      []repository.CreateOutboxMsgParams
	seq         int64
}

func (s memState) clone() memState {
	c := s
	c.products = maps.Clone(s.products)
	c.categories = maps.Clone(s.categories)
	c.memberships = make(map[uuid.UUID]map[uuid.UUID]bool, len(s.memberships))
	for k, v := range s.memberships {
		c.memberships[k] = maps.Clone(v)
	}
	c.prices = slices.Clone(s.prices)
	c.inventory = maps.Clone(s.inventory)
	c.images = maps.Clone(s.images)
	c.outbox = slices.Clone(s.outbox)
	return c
}

type memStore struct {
	mu    sync.Mutex
	state memState
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		products:    map[uuid.UUID]model.Product{},
		categories:  map[uuid.UUID]model.Category{},
		memberships: map[uuid.UUID]map[uuid.UUID]bool{},
		inventory:   map[uuid.UUID]model.Inventory{},
		images:      map[uuid.UUID]model.ProductImage{},
	}}
}

func (m *memStore) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics := make([]string, 0, len(m.state.outbox))
	for _, msg := range m.state.outbox {
		topics = append(topics, msg.Topic)
	}
	return topics
}

func (m *memStore) lastPayload(topic string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.state.outbox) - 1; i >= 0; i-- {
		if m.state.outbox[i].Topic == topic {
			return json.Unmarshal(m.state.outbox[i].Payload, dst)
		}
	}
	return errors.New("no message on " + topic)
}

// fakeDB serializes transactions and restores the store when one fails.
type fakeDB struct {
	db.DB
	txMu  sync.Mutex
	store *memStore
	txs   int
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	f.txs++

	f.store.mu.Lock()
	snapshot := f.store.state.clone()
	f.store.mu.Unlock()

	if err := txFunc(f); err != nil {
		f.store.mu.Lock()
		f.store.state = snapshot
		f.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeProductRepo struct{ m *memStore }

func (r fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r fakeProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, p := range r.m.state.products {
		if p.Sku == product.Sku {
			return apperr.SkuConflictErr
		}
	}
	r.m.state.products[product.ID] = product
	return nil
}

func (r fakeProductRepo) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.state.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return p, nil
}

func (r fakeProductRepo) LockProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.GetProduct(ctx, id)
}

func (r fakeProductRepo) UpdateProduct(_ context.Context, product model.Product) (model.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.state.products[product.ID]; !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	for _, p := range r.m.state.products {
		if p.ID != product.ID && p.Sku == product.Sku {
			return model.Product{}, apperr.SkuConflictErr
		}
	}
	r.m.state.products[product.ID] = product
	return product, nil
}

func (r fakeProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.state.products[id]; !ok {
		return apperr.ProductNotFoundErr
	}
	delete(r.m.state.products, id)
	delete(r.m.state.memberships, id)
	delete(r.m.state.inventory, id)
	r.m.state.prices = slices.DeleteFunc(r.m.state.prices, func(p model.Price) bool { return p.ProductID == id })
	maps.DeleteFunc(r.m.state.images, func(_ uuid.UUID, img model.ProductImage) bool { return img.ProductID == id })
	return nil
}

func (r fakeProductRepo) ProductExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, ok := r.m.state.products[id]
	return ok, nil
}

func (r fakeProductRepo) SearchProducts(_ context.Context, pred filter.Predicate, page model.PageRequest) (model.Page[model.Product], error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []model.Product
	for _, p := range r.m.state.products {
		if pred.Matches(r.candidate(p)) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID.String() > matched[j].ID.String() })

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := min(start+page.Size, len(matched))
	return model.NewPage(matched[start:end], page, total), nil
}

func (r fakeProductRepo) candidate(p model.Product) filter.Candidate {
	c := filter.Candidate{SKU: p.Sku, Name: p.Name}
	for id := range r.m.state.memberships[p.ID] {
		c.CategoryIDs = append(c.CategoryIDs, id)
	}
	if price, ok := latestPrice(r.m.state.prices, p.ID); ok {
		c.CurrentPrice = &price.Amount
	}
	if inv, ok := r.m.state.inventory[p.ID]; ok {
		c.Quantity = &inv.Quantity
	}
	return c
}

func (r fakeProductRepo) GetInternalProduct(_ context.Context, id uuid.UUID) (model.InternalProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.state.products[id]
	if !ok {
		return model.InternalProduct{}, apperr.ProductNotFoundErr
	}
	ip := model.InternalProduct{ID: p.ID, Name: p.Name}
	if price, ok := latestPrice(r.m.state.prices, id); ok {
		ip.Price = &price.Amount
		ip.Currency = &price.Currency
	}
	if inv, ok := r.m.state.inventory[id]; ok {
		ip.Quantity = &inv.Quantity
	}
	return ip, nil
}

func (r fakeProductRepo) AssignCategory(_ context.Context, productID, categoryID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.state.categories[categoryID]; !ok {
		return apperr.CategoryNotFoundErr
	}
	if r.m.state.memberships[productID] == nil {
		r.m.state.memberships[productID] = map[uuid.UUID]bool{}
	}
	r.m.state.memberships[productID][categoryID] = true
	return nil
}

func (r fakeProductRepo) UnassignCategory(_ context.Context, productID, categoryID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.state.memberships[productID], categoryID)
	return nil
}

type fakeCategoryRepo struct {
	m *memStore
	// conflicts makes the next n writes of a slug fail as if a concurrent
	// transaction had committed it first.
	conflicts map[string]int
}

func (r *fakeCategoryRepo) WithDB(db.DB) repository.CategoryRepository { return r }

func (r *fakeCategoryRepo) ListCategories(context.Context) ([]model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	categories := slices.Collect(maps.Values(r.m.state.categories))
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *fakeCategoryRepo) GetCategory(_ context.Context, id uuid.UUID) (model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.state.categories[id]
	if !ok {
		return model.Category{}, apperr.CategoryNotFoundErr
	}
	return c, nil
}

func (r *fakeCategoryRepo) LockCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	return r.GetCategory(ctx, id)
}

func (r *fakeCategoryRepo) store(category model.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.conflicts[category.Slug] > 0 {
		r.conflicts[category.Slug]--
		return apperr.SlugConflictErr
	}
	for _, c := range r.m.state.categories {
		if c.ID != category.ID && c.Slug == category.Slug {
			return apperr.SlugConflictErr
		}
	}
	r.m.state.categories[category.ID] = category
	return nil
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, category model.Category) error {
	return r.store(category)
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, category model.Category) error {
	return r.store(category)
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, id uuid.UUID) (model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.state.categories[id]
	if !ok {
		return model.Category{}, apperr.CategoryNotFoundErr
	}
	delete(r.m.state.categories, id)
	for _, set := range r.m.state.memberships {
		delete(set, id)
	}
	return c, nil
}

func (r *fakeCategoryRepo) DeleteCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	r.m.mu.Lock()
	var id uuid.UUID
	for _, c := range r.m.state.categories {
		if c.Slug == slug {
			id = c.ID
		}
	}
	r.m.mu.Unlock()

	if id == uuid.Nil {
		return model.Category{}, apperr.CategoryNotFoundErr
	}
	return r.DeleteCategory(ctx, id)
}

func (r *fakeCategoryRepo) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, ok := r.m.state.categories[id]
	return ok, nil
}

func (r *fakeCategoryRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, c := range r.m.state.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCategoryRepo) LockSlug(context.Context, string) error { return nil }

type fakePriceRepo struct{ m *memStore }

func (r fakePriceRepo) WithDB(db.DB) repository.PriceRepository { return r }

func (r fakePriceRepo) InsertPrice(_ context.Context, price model.Price) (model.Price, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.state.products[price.ProductID]; !ok {
		return model.Price{}, apperr.ProductNotFoundErr
	}
	r.m.state.seq++
	price.Seq = r.m.state.seq
	r.m.state.prices = append(r.m.state.prices, price)
	return price, nil
}

func (r fakePriceRepo) OverwriteLatestPrice(
	_ context.Context,
	productID uuid.UUID,
	amount decimal.Decimal,
	currency string,
) (model.Price, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	latest, ok := latestPrice(r.m.state.prices, productID)
	if !ok {
		return model.Price{}, false, nil
	}
	for i, p := range r.m.state.prices {
		if p.ID == latest.ID {
			r.m.state.prices[i].Amount = amount
			r.m.state.prices[i].Currency = currency
			return r.m.state.prices[i], true, nil
		}
	}
	return model.Price{}, false, nil
}

func (r fakePriceRepo) CurrentPrice(_ context.Context, productID uuid.UUID) (model.Price, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	price, ok := latestPrice(r.m.state.prices, productID)
	if !ok {
		return model.Price{}, apperr.PriceNotSetErr
	}
	return price, nil
}

func (r fakePriceRepo) ListPrices(_ context.Context, productID uuid.UUID) ([]model.Price, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var prices []model.Price
	for _, p := range r.m.state.prices {
		if p.ProductID == productID {
			prices = append(prices, p)
		}
	}
	sort.Slice(prices, func(i, j int) bool { return newer(prices[i], prices[j]) })
	return prices, nil
}

func newer(a, b model.Price) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Seq > b.Seq
}

func latestPrice(prices []model.Price, productID uuid.UUID) (model.Price, bool) {
	var (
		latest model.Price
		found  bool
	)
	for _, p := range prices {
		if p.ProductID == productID && (!found || newer(p, latest)) {
			latest, found = p, true
		}
	}
	return latest, found
}

type fakeInventoryRepo struct{ m *memStore }

func (r fakeInventoryRepo) WithDB(db.DB) repository.InventoryRepository { return r }

func (r fakeInventoryRepo) CreateInventory(_ context.Context, inv model.Inventory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if inv.Quantity < 0 {
		return apperr.ValidationErr
	}
	r.m.state.inventory[inv.ProductID] = inv
	return nil
}

func (r fakeInventoryRepo) GetInventory(_ context.Context, productID uuid.UUID) (model.Inventory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	inv, ok := r.m.state.inventory[productID]
	if !ok {
		return model.Inventory{}, apperr.InventoryNotFoundErr
	}
	return inv, nil
}

func (r fakeInventoryRepo) Reserve(_ context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	return r.update(productID, at, func(q int) (int, error) {
		if q < qty {
			return 0, apperr.InsufficientStockErr
		}
		return q - qty, nil
	})
}

func (r fakeInventoryRepo) Release(_ context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	return r.update(productID, at, func(q int) (int, error) { return q + qty, nil })
}

func (r fakeInventoryRepo) SetQuantity(_ context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	return r.update(productID, at, func(int) (int, error) { return qty, nil })
}

func (r fakeInventoryRepo) update(productID uuid.UUID, at time.Time, fn func(int) (int, error)) (model.Inventory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	inv, ok := r.m.state.inventory[productID]
	if !ok {
		return model.Inventory{}, apperr.InventoryNotFoundErr
	}
	q, err := fn(inv.Quantity)
	if err != nil {
		return model.Inventory{}, err
	}
	if q > math.MaxInt32 {
		return model.Inventory{}, apperr.ValidationErr.WithMsg("value out of range")
	}
	inv.Quantity = q
	inv.UpdatedAt = at
	r.m.state.inventory[productID] = inv
	return inv, nil
}

type fakeImageRepo struct {
	m       *memStore
	failErr error
}

func (r *fakeImageRepo) WithDB(db.DB) repository.ImageRepository { return r }

func (r *fakeImageRepo) CreateImage(_ context.Context, image model.ProductImage) error {
	if r.failErr != nil {
		return r.failErr
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if image.Primary {
		for id, img := range r.m.state.images {
			if img.ProductID == image.ProductID {
				img.Primary = false
				r.m.state.images[id] = img
			}
		}
	}
	r.m.state.images[image.ID] = image
	return nil
}

func (r *fakeImageRepo) GetImage(_ context.Context, id uuid.UUID) (model.ProductImage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	img, ok := r.m.state.images[id]
	if !ok {
		return model.ProductImage{}, apperr.ImageNotFoundErr
	}
	return img, nil
}

func (r *fakeImageRepo) ListImages(_ context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var images []model.ProductImage
	for _, img := range r.m.state.images {
		if img.ProductID == productID {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID.String() < images[j].ID.String() })
	return images, nil
}

func (r *fakeImageRepo) DeleteImage(_ context.Context, id uuid.UUID) (model.ProductImage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	img, ok := r.m.state.images[id]
	if !ok {
		return model.ProductImage{}, apperr.ImageNotFoundErr
	}
	delete(r.m.state.images, id)
	return img, nil
}

type fakeOutboxRepo struct{ m *memStore }

func (r fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.state.outbox = append(r.m.state.outbox, params)
	return nil
}

func (r fakeOutboxRepo) ListUnprocessedOutboxMsgs(
	context.Context,
	repository.ListUnprocessedOutboxMsgsParams,
) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (r fakeOutboxRepo) PurgeOutboxMsgs(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Get(_ context.Context, key string) (objectstore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	if !ok {
		return objectstore.Object{}, errors.Join(objectstore.ErrNotFound, fs.ErrNotExist)
	}
	return objectstore.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: "image/png",
	}, nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, key)
	if _, ok := s.objects[key]; !ok {
		return objectstore.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) URL(key string) string {
	return "http://objects.local/catalog/" + key
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(data, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
