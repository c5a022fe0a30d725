package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
)

var ErrNotFound = errors.New("not found")

const settingsID = "global"

type MongoRepository struct {
	db       *mongo.Database
	msgColl  *mongo.Collection
	convColl *mongo.Collection
	setColl  *mongo.Collection
	log      *zap.Logger
}

func NewMongoClient(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func NewMongoRepository(db *mongo.Database, log *zap.Logger) *MongoRepository {
	r := &MongoRepository{
		db:       db,
		msgColl:  db.Collection("messages"),
		convColl: db.Collection("conversations"),
		setColl:  db.Collection("settings"),
		log:      log,
	}
	_, _ = r.msgColl.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("chat_created_idx"),
	})
	return r
}

// EnsureConversation upserts the membership doc keyed by the derived chat
// key. Both clients race to create it; $setOnInsert makes that harmless.
func (r *MongoRepository) EnsureConversation(ctx context.Context, id string, members []string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	doc := bson.M{"_id": id, "members": members, "created_at": time.Now().UTC()}
	_, err := r.convColl.UpdateByID(ctx, id, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *MongoRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var c domain.Conversation
	if err := r.convColl.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SaveMessage is an idempotent create: a retried send with the same ID does
// not duplicate the document.
func (r *MongoRepository) SaveMessage(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if m.DeletedFor == nil {
		m.DeletedFor = []string{}
	}
	filter := bson.M{"_id": m.ID}
	update := bson.M{"$setOnInsert": m}
	_, err := r.msgColl.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoRepository) GetMessageByID(ctx context.Context, messageID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var m domain.Message
	if err := r.msgColl.FindOne(ctx, bson.M{"_id": messageID}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.DeletedFor == nil {
		m.DeletedFor = []string{}
	}
	return &m, nil
}

// ListMessages returns the full ordered message set for one conversation,
// ascending by creation time. Retention keeps conversations bounded, so a
// complete read per snapshot is fine.
func (r *MongoRepository) ListMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.msgColl.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Message{}
	for cur.Next(ctx) {
		var m domain.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		if m.DeletedFor == nil {
			m.DeletedFor = []string{}
		}
		out = append(out, m)
	}
	return out, cur.Err()
}

// SetSaved flips the save flag, last-write-wins. A missing document means a
// racing expiry got there first; that is not an error.
func (r *MongoRepository) SetSaved(ctx context.Context, messageID string, saved bool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.msgColl.UpdateByID(ctx, messageID, bson.M{"$set": bson.M{"saved": saved}})
	return err
}

// SoftDelete hides the message from userID. $addToSet keeps the membership
// monotonic and makes repeated calls harmless.
func (r *MongoRepository) SoftDelete(ctx context.Context, messageID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.msgColl.UpdateByID(ctx, messageID, bson.M{"$addToSet": bson.M{"deleted_for": userID}})
	return err
}

// MarkSeen sets the read receipt. Idempotent: setting seen twice is a no-op
// and a missing document counts as done.
func (r *MongoRepository) MarkSeen(ctx context.Context, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.msgColl.UpdateByID(ctx, messageID, bson.M{"$set": bson.M{"seen": true}})
	return err
}

// DeleteMessage hard-removes the document. DeleteOne on an already-deleted
// ID succeeds with zero matches, which is exactly the tolerance racing
// expiries need.
func (r *MongoRepository) DeleteMessage(ctx context.Context, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.msgColl.DeleteOne(ctx, bson.M{"_id": messageID})
	return err
}

func (r *MongoRepository) GetSettings(ctx context.Context) (domain.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var s domain.Settings
	if err := r.setColl.FindOne(ctx, bson.M{"_id": settingsID}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.Settings{}, ErrNotFound
		}
		return domain.Settings{}, err
	}
	return s, nil
}

func (r *MongoRepository) PutSettings(ctx context.Context, s domain.Settings) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	doc := bson.M{
		"_id":             settingsID,
		"wallpaper_url":   s.WallpaperURL,
		"retention_hours": s.RetentionHours,
	}
	_, err := r.setColl.ReplaceOne(ctx, bson.M{"_id": settingsID}, doc, options.Replace().SetUpsert(true))
	return err
}
