package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"hayoungplace/domain"
)

type partyDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Status      string        `bson:"status"`
	Description string        `bson:"description"`
	Location    string        `bson:"location"`
	Date        time.Time     `bson:"date"`
	MaxMembers  *int          `bson:"maxMembers"`
	MemberCount int           `bson:"memberCount"`
	Tags        []string      `bson:"tags"`
	Nickname    string        `bson:"nickname"`
	Password    string        `bson:"password"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d partyDocument) toDomain() domain.Party {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Party{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Status:      domain.PartyStatus(d.Status),
		Description: d.Description,
		Location:    d.Location,
		Date:        d.Date,
		MaxMembers:  d.MaxMembers,
		MemberCount: d.MemberCount,
		Tags:        tags,
		Nickname:    d.Nickname,
		Password:    d.Password,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type memberDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	PartyID   string        `bson:"partyId"`
	Nickname  string        `bson:"nickname"`
	Password  string        `bson:"password"`
	IsCreator bool          `bson:"isCreator"`
	JoinedAt  time.Time     `bson:"joinedAt"`
}

func (d memberDocument) toDomain() domain.PartyMember {
	return domain.PartyMember{
		ID:        d.ID.Hex(),
		PartyID:   d.PartyID,
		Nickname:  d.Nickname,
		Password:  d.Password,
		IsCreator: d.IsCreator,
		JoinedAt:  d.JoinedAt,
	}
}

type PartyRepository struct {
	parties *mongo.Collection
	members *mongo.Collection
}

func NewPartyRepository(db *mongo.Database) *PartyRepository {
	return &PartyRepository{
		parties: db.Collection(partiesCollection),
		members: db.Collection(partyMembersCollection),
	}
}

func (r *PartyRepository) Create(ctx context.Context, p *domain.Party, creator *domain.PartyMember) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	doc := partyDocument{
		ID:          bson.NewObjectID(),
		Title:       p.Title,
		Status:      string(p.Status),
		Description: p.Description,
		Location:    p.Location,
		Date:        p.Date,
		MaxMembers:  p.MaxMembers,
		MemberCount: p.MemberCount,
		Tags:        tags,
		Nickname:    p.Nickname,
		Password:    p.Password,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if _, err := r.parties.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}

	partyID := doc.ID.Hex()
	creator.PartyID = partyID
	if err := r.insertMember(ctx, creator); err != nil {
		if _, cleanupErr := r.parties.DeleteOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}); cleanupErr != nil {
			zap.L().Error("Failed to remove party without creator", zap.String("partyId", partyID), zap.Error(cleanupErr))
		}
		creator.PartyID = ""
		return err
	}

	p.ID = partyID
	return nil
}

func (r *PartyRepository) Get(ctx context.Context, id string) (domain.Party, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Party{}, err
	}

	var doc partyDocument
	if err := r.parties.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return domain.Party{}, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *PartyRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Party, error) {
	cursor, err := r.parties.Find(ctx, bson.D{}, pageOptions(page).SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	docs := make([]partyDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	parties := make([]domain.Party, 0, len(docs))
	for _, doc := range docs {
		parties = append(parties, doc.toDomain())
	}
	return parties, nil
}

func (r *PartyRepository) Count(ctx context.Context) (int64, error) {
	return r.parties.CountDocuments(ctx, bson.D{})
}

func (r *PartyRepository) Update(ctx context.Context, p domain.Party, seen domain.Party) error {
	oid, err := objectID(p.ID)
	if err != nil {
		return err
	}

	res, err := r.parties.UpdateOne(ctx,
		unchangedPartyFilter(oid, seen),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: p.Title},
			{Key: "description", Value: p.Description},
			{Key: "location", Value: p.Location},
			{Key: "date", Value: p.Date},
			{Key: "maxMembers", Value: p.MaxMembers},
			{Key: "tags", Value: p.Tags},
			{Key: "status", Value: string(p.Status)},
			{Key: "updatedAt", Value: p.UpdatedAt},
		}}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPartyChanged
	}
	return nil
}

// unchangedPartyFilter matches the party only while its membership is the
// one the caller read.
func unchangedPartyFilter(oid bson.ObjectID, seen domain.Party) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "status", Value: string(seen.Status)},
		{Key: "memberCount", Value: seen.MemberCount},
	}
}

func (r *PartyRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.parties.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}

	if _, err := r.members.DeleteMany(ctx, bson.D{{Key: "partyId", Value: id}}); err != nil {
		return err
	}
	return nil
}

// AddMember reserves a seat with a conditional update on the party document,
// then inserts the member. A nickname collision gives the seat back.
func (r *PartyRepository) AddMember(ctx context.Context, m *domain.PartyMember, at time.Time) (domain.Party, error) {
	oid, err := objectID(m.PartyID)
	if err != nil {
		return domain.Party{}, err
	}

	if _, err := r.FindMember(ctx, m.PartyID, m.Nickname); err == nil {
		return domain.Party{}, domain.ErrDuplicateKey
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.Party{}, err
	}

	var doc partyDocument
	err = r.parties.FindOneAndUpdate(ctx,
		seatAvailableFilter(oid),
		reserveSeatPipeline(at),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Party{}, r.joinRejection(ctx, m.PartyID)
	}
	if err != nil {
		return domain.Party{}, err
	}

	if err := r.insertMember(ctx, m); err != nil {
		if _, releaseErr := r.parties.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, releaseSeatPipeline(at)); releaseErr != nil {
			zap.L().Error("Failed to release reserved party seat", zap.String("partyId", m.PartyID), zap.Error(releaseErr))
		}
		return domain.Party{}, err
	}

	return doc.toDomain(), nil
}

func (r *PartyRepository) FindMember(ctx context.Context, partyID, nickname string) (domain.PartyMember, error) {
	var doc memberDocument
	err := r.members.FindOne(ctx, bson.D{
		{Key: "partyId", Value: partyID},
		{Key: "nickname", Value: nickname},
	}).Decode(&doc)
	if err != nil {
		return domain.PartyMember{}, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *PartyRepository) RemoveMember(ctx context.Context, partyID, nickname string, at time.Time) (domain.Party, error) {
	oid, err := objectID(partyID)
	if err != nil {
		return domain.Party{}, err
	}

	res, err := r.members.DeleteOne(ctx, bson.D{
		{Key: "partyId", Value: partyID},
		{Key: "nickname", Value: nickname},
	})
	if err != nil {
		return domain.Party{}, err
	}
	if res.DeletedCount == 0 {
		return domain.Party{}, domain.ErrRecordNotFound
	}

	var doc partyDocument
	err = r.parties.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		releaseSeatPipeline(at),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return domain.Party{}, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *PartyRepository) Members(ctx context.Context, partyID string) ([]domain.PartyMember, error) {
	cursor, err := r.members.Find(ctx,
		bson.D{{Key: "partyId", Value: partyID}},
		options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	docs := make([]memberDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	members := make([]domain.PartyMember, 0, len(docs))
	for _, doc := range docs {
		members = append(members, doc.toDomain())
	}
	return members, nil
}

func (r *PartyRepository) insertMember(ctx context.Context, m *domain.PartyMember) error {
	doc := memberDocument{
		ID:        bson.NewObjectID(),
		PartyID:   m.PartyID,
		Nickname:  m.Nickname,
		Password:  m.Password,
		IsCreator: m.IsCreator,
		JoinedAt:  m.JoinedAt,
	}
	if _, err := r.members.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	m.ID = doc.ID.Hex()
	return nil
}

// joinRejection explains why the seat reservation matched nothing.
func (r *PartyRepository) joinRejection(ctx context.Context, partyID string) error {
	p, err := r.Get(ctx, partyID)
	if err != nil {
		return err
	}
	if p.Status != domain.PartyStatusRecruiting {
		return domain.ErrPartyClosed
	}
	return domain.ErrPartyFull
}

func seatAvailableFilter(oid bson.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "status", Value: string(domain.PartyStatusRecruiting)},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "maxMembers", Value: nil}},
			bson.D{{Key: "$expr", Value: bson.D{
				{Key: "$lt", Value: bson.A{"$memberCount", "$maxMembers"}},
			}}},
		}},
	}
}

// reserveSeatPipeline increments memberCount and closes the party when the
// new count reaches maxMembers.
func reserveSeatPipeline(at time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "memberCount", Value: bson.D{{Key: "$add", Value: bson.A{"$memberCount", 1}}}},
			{Key: "updatedAt", Value: at},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$gt", Value: bson.A{"$maxMembers", 0}}},
					bson.D{{Key: "$gte", Value: bson.A{"$memberCount", "$maxMembers"}}},
				}}},
				string(domain.PartyStatusCompleted),
				"$status",
			}}}},
		}}},
	}
}

// releaseSeatPipeline decrements memberCount and reopens a completed party.
func releaseSeatPipeline(at time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "memberCount", Value: bson.D{{Key: "$add", Value: bson.A{"$memberCount", -1}}}},
			{Key: "updatedAt", Value: at},
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$status", string(domain.PartyStatusCompleted)}}},
				string(domain.PartyStatusRecruiting),
				"$status",
			}}}},
		}}},
	}
}
