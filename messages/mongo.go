package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akshayUniverse/cook-ease-sub001/config"
)

// Connect opens a Mongo client and pings it.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

type conversationDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`
	Participants []int              `bson:"participants"`
	LastMessage  *previewDoc        `bson:"last_message,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type previewDoc struct {
	SenderID  int       `bson:"sender_id"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"created_at"`
}

type messageDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `bson:"conversation_id"`
	SenderID       int                `bson:"sender_id"`
	RecipientID    int                `bson:"recipient_id"`
	Body           string             `bson:"body"`
	CreatedAt      time.Time          `bson:"created_at"`
	ReadAt         *time.Time         `bson:"read_at,omitempty"`
}

func (d *conversationDoc) toConversation() *Conversation {
	c := &Conversation{ID: d.ID.Hex(), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
	if len(d.Participants) == 2 {
		c.Participants = [2]int{d.Participants[0], d.Participants[1]}
	}
	if d.LastMessage != nil {
		c.LastMessage = &Preview{SenderID: d.LastMessage.SenderID, Body: d.LastMessage.Body, CreatedAt: d.LastMessage.CreatedAt}
	}
	return c
}

func (d *messageDoc) toMessage() Message {
	return Message{
		ID:             d.ID.Hex(),
		ConversationID: d.ConversationID.Hex(),
		SenderID:       d.SenderID,
		RecipientID:    d.RecipientID,
		Body:           d.Body,
		CreatedAt:      d.CreatedAt,
		ReadAt:         d.ReadAt,
	}
}

func pairKey(p [2]int) string {
	return fmt.Sprintf("%d:%d", p[0], p[1])
}

// MongoStore keeps conversations and messages in two collections.
type MongoStore struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

// NewMongoStore uses the "conversations" and "messages" collections of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// EnsureIndexes creates the unique pair index and the paging indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo conversation indexes: %w", err)
	}
	_, err = s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo message indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindOrCreateConversation(ctx context.Context, a, b int) (*Conversation, error) {
	pair := participants(a, b)
	now := time.Now().UTC()

	var doc conversationDoc
	err := s.conversations.FindOneAndUpdate(ctx,
		bson.M{"key": pairKey(pair)},
		bson.M{"$setOnInsert": bson.M{
			"key":          pairKey(pair),
			"participants": []int{pair[0], pair[1]},
			"created_at":   now,
			"updated_at":   now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("mongo upsert conversation: %w", err)
	}
	return doc.toConversation(), nil
}

func (s *MongoStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc conversationDoc
	if err := s.conversations.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find conversation: %w", err)
	}
	return doc.toConversation(), nil
}

func (s *MongoStore) AddMessage(ctx context.Context, msg *Message) error {
	convID, err := primitive.ObjectIDFromHex(msg.ConversationID)
	if err != nil {
		return ErrNotFound
	}
	doc := messageDoc{
		ConversationID: convID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		Body:           msg.Body,
		// Mongo stores milliseconds; truncate so the returned value matches what is read back.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	res, err := s.messages.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongo insert message: %w", err)
	}
	msg.ID = res.InsertedID.(primitive.ObjectID).Hex()
	msg.CreatedAt = doc.CreatedAt

	_, err = s.conversations.UpdateByID(ctx, convID, bson.M{"$set": bson.M{
		"last_message": previewDoc{SenderID: msg.SenderID, Body: msg.Body, CreatedAt: doc.CreatedAt},
		"updated_at":   doc.CreatedAt,
	}})
	if err != nil {
		return fmt.Errorf("mongo update conversation: %w", err)
	}
	return nil
}

func (s *MongoStore) ListConversations(ctx context.Context, userID int) ([]ConversationSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.conversations.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list conversations: %w", err)
	}
	defer cur.Close(ctx)

	var docs []conversationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode conversations: %w", err)
	}

	unread, err := s.unreadCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(docs))
	for i := range docs {
		c := docs[i].toConversation()
		out = append(out, ConversationSummary{
			Conversation: *c,
			OtherUserID:  c.Other(userID),
			UnreadCount:  unread[docs[i].ID],
		})
	}
	return out, nil
}

// unreadCounts groups userID's unread messages by conversation.
func (s *MongoStore) unreadCounts(ctx context.Context, userID int) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"recipient_id": userID, "read_at": bson.M{"$exists": false}}}},
		{{Key: "$group", Value: bson.M{"_id": "$conversation_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo unread counts: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongo decode unread counts: %w", err)
	}
	counts := make(map[primitive.ObjectID]int64, len(rows))
	for _, r := range rows {
		counts[r.ID] = r.Count
	}
	return counts, nil
}

func (s *MongoStore) ListMessages(ctx context.Context, conversationID string, before Cursor, limit int) ([]Message, error) {
	convID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, ErrNotFound
	}
	filter := bson.M{"conversation_id": convID}
	if !before.IsZero() {
		lastID, err := primitive.ObjectIDFromHex(before.ID)
		if err != nil {
			return nil, fmt.Errorf("mongo message cursor: %w", err)
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": before.CreatedAt}},
			bson.M{"created_at": before.CreatedAt, "_id": bson.M{"$lt": lastID}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode messages: %w", err)
	}
	out := make([]Message, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toMessage())
	}
	return out, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, conversationID string, userID int, at time.Time) (int64, error) {
	convID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return 0, ErrNotFound
	}
	res, err := s.messages.UpdateMany(ctx,
		bson.M{"conversation_id": convID, "recipient_id": userID, "read_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"read_at": at.UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("mongo mark read: %w", err)
	}
	return res.ModifiedCount, nil
}
