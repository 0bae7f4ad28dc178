package handler

import (
    "time"

    "github.com/iliyamo/peer-rental/internal/model"
)

// ----- requests -----

type registerReq struct {
    Email    string  `json:"email" validate:"required,email"`
    Password string  `json:"password" validate:"required,min=8,max=72"`
    FullName string  `json:"full_name" validate:"required,max=255"`
    Phone    *string `json:"phone" validate:"omitempty,max=32"`
}

type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
    RefreshToken string `json:"refresh_token"`
}

type createItemReq struct {
    CategoryID        uint64   `json:"category_id" validate:"required"`
    Title             string   `json:"title" validate:"required,max=255"`
    Description       *string  `json:"description"`
    PricePerHourCents *int64   `json:"price_per_hour_cents" validate:"omitempty,gte=0"`
    PricePerDayCents  *int64   `json:"price_per_day_cents" validate:"omitempty,gte=0"`
    Address           string   `json:"address" validate:"required,max=512"`
    Latitude          *float64 `json:"latitude" validate:"required,latitude"`
    Longitude         *float64 `json:"longitude" validate:"required,longitude"`
    ImageURLs         []string `json:"images" validate:"max=20,dive,required,url"`
}

type availabilityReq struct {
    IsAvailable *bool `json:"is_available" validate:"required"`
}

type createCategoryReq struct {
    Name     string  `json:"name" validate:"required,max=128"`
    ParentID *uint64 `json:"parent_id"`
}

type startChatReq struct {
    ItemID uint64 `json:"item_id" validate:"required"`
}

type sendMessageReq struct {
    Text          string  `json:"message_text" validate:"max=4000"`
    Type          string  `json:"message_type" validate:"omitempty,oneof=text image file"`
    AttachmentURL *string `json:"attachment_url" validate:"omitempty,url"`
}

type createRentalReq struct {
    ItemID          uint64    `json:"item_id" validate:"required"`
    StartDate       time.Time `json:"start_date" validate:"required"`
    EndDate         time.Time `json:"end_date" validate:"required"`
    TotalPriceCents *int64    `json:"total_price_cents" validate:"omitempty,gte=0"`
}

type createReviewReq struct {
    RentalID       uint64 `json:"rental_id" validate:"required"`
    ReviewedUserID uint64 `json:"reviewed_user_id" validate:"required"`
    Rating         int    `json:"rating" validate:"required,min=1,max=5"`
    Comment        string `json:"comment" validate:"max=2000"`
}

// ----- responses -----

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

type userResp struct {
    ID        uint64    `json:"id"`
    Email     string    `json:"email"`
    FullName  string    `json:"full_name"`
    Phone     *string   `json:"phone,omitempty"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"created_at"`
}

// publicUserResp is the profile shown to other users.
type publicUserResp struct {
    ID        uint64    `json:"id"`
    FullName  string    `json:"full_name"`
    CreatedAt time.Time `json:"created_at"`
}

type authResp struct {
    User    userResp  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

type imageResp struct {
    ID         uint64 `json:"id"`
    ImageURL   string `json:"image_url"`
    OrderIndex int    `json:"order_index"`
}

type itemResp struct {
    ID                uint64      `json:"id"`
    OwnerID           uint64      `json:"owner_id"`
    CategoryID        uint64      `json:"category_id"`
    Title             string      `json:"title"`
    Description       *string     `json:"description,omitempty"`
    PricePerHourCents *int64      `json:"price_per_hour_cents,omitempty"`
    PricePerDayCents  *int64      `json:"price_per_day_cents,omitempty"`
    Address           string      `json:"address"`
    Latitude          float64     `json:"latitude"`
    Longitude         float64     `json:"longitude"`
    IsAvailable       bool        `json:"is_available"`
    Images            []imageResp `json:"images"`
    CreatedAt         time.Time   `json:"created_at"`
    UpdatedAt         time.Time   `json:"updated_at"`
}

type categoryResp struct {
    ID       uint64  `json:"id"`
    Name     string  `json:"name"`
    ParentID *uint64 `json:"parent_id,omitempty"`
}

type conversationResp struct {
    ID        uint64    `json:"id"`
    ItemID    *uint64   `json:"item_id"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

type messageResp struct {
    ID             uint64     `json:"id"`
    ConversationID uint64     `json:"conversation_id"`
    SenderID       uint64     `json:"sender_id"`
    Text           string     `json:"message_text"`
    Type           string     `json:"message_type"`
    AttachmentURL  *string    `json:"attachment_url,omitempty"`
    IsRead         bool       `json:"is_read"`
    ReadAt         *time.Time `json:"read_at,omitempty"`
    CreatedAt      time.Time  `json:"created_at"`
}

type rentalResp struct {
    ID              uint64     `json:"id"`
    ItemID          uint64     `json:"item_id"`
    TenantID        uint64     `json:"tenant_id"`
    OwnerID         uint64     `json:"owner_id"`
    Status          string     `json:"status"`
    TotalPriceCents int64      `json:"total_price_cents"`
    StartDate       time.Time  `json:"start_date"`
    EndDate         time.Time  `json:"end_date"`
    OwnerConfirmed  bool       `json:"owner_confirmed"`
    TenantConfirmed bool       `json:"tenant_confirmed"`
    CreatedAt       time.Time  `json:"created_at"`
    ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
    CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

type reviewResp struct {
    ID             uint64    `json:"id"`
    RentalID       uint64    `json:"rental_id"`
    AuthorID       uint64    `json:"reviewer_id"`
    ReviewedUserID uint64    `json:"reviewed_user_id"`
    Rating         int       `json:"rating"`
    Comment        string    `json:"comment"`
    CreatedAt      time.Time `json:"created_at"`
}

type ratingResp struct {
    UserID  uint64  `json:"user_id"`
    Count   int     `json:"count"`
    Average float64 `json:"average"`
}

func toUser(u *model.User) userResp {
    return userResp{ID: u.ID, Email: u.Email, FullName: u.FullName, Phone: u.Phone, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toItem(it *model.Item) itemResp {
    imgs := make([]imageResp, 0, len(it.Images))
    for _, im := range it.Images {
        imgs = append(imgs, imageResp{ID: im.ID, ImageURL: im.ImageURL, OrderIndex: im.OrderIndex})
    }
    return itemResp{
        ID:                it.ID,
        OwnerID:           it.OwnerID,
        CategoryID:        it.CategoryID,
        Title:             it.Title,
        Description:       it.Description,
        PricePerHourCents: it.PricePerHourCents,
        PricePerDayCents:  it.PricePerDayCents,
        Address:           it.Address,
        Latitude:          it.Latitude,
        Longitude:         it.Longitude,
        IsAvailable:       it.IsAvailable,
        Images:            imgs,
        CreatedAt:         it.CreatedAt,
        UpdatedAt:         it.UpdatedAt,
    }
}

func toItems(items []model.Item) []itemResp {
    out := make([]itemResp, 0, len(items))
    for i := range items {
        out = append(out, toItem(&items[i]))
    }
    return out
}

func toConversation(cv *model.Conversation) conversationResp {
    return conversationResp{ID: cv.ID, ItemID: cv.ItemID, CreatedAt: cv.CreatedAt, UpdatedAt: cv.UpdatedAt}
}

func toMessage(m *model.Message) messageResp {
    return messageResp{
        ID:             m.ID,
        ConversationID: m.ConversationID,
        SenderID:       m.SenderID,
        Text:           m.Text,
        Type:           m.Type,
        AttachmentURL:  m.AttachmentURL,
        IsRead:         m.IsRead,
        ReadAt:         m.ReadAt,
        CreatedAt:      m.CreatedAt,
    }
}

func toRental(r *model.Rental) rentalResp {
    return rentalResp{
        ID:              r.ID,
        ItemID:          r.ItemID,
        TenantID:        r.TenantID,
        OwnerID:         r.OwnerID,
        Status:          r.Status,
        TotalPriceCents: r.TotalPriceCents,
        StartDate:       r.StartsAt,
        EndDate:         r.EndsAt,
        OwnerConfirmed:  r.OwnerConfirmed,
        TenantConfirmed: r.TenantConfirmed,
        CreatedAt:       r.CreatedAt,
        ConfirmedAt:     r.ConfirmedAt,
        CancelledAt:     r.CancelledAt,
    }
}

func toRentals(rs []model.Rental) []rentalResp {
    out := make([]rentalResp, 0, len(rs))
    for i := range rs {
        out = append(out, toRental(&rs[i]))
    }
    return out
}

func toReview(rv *model.Review) reviewResp {
    return reviewResp{
        ID:             rv.ID,
        RentalID:       rv.RentalID,
        AuthorID:       rv.AuthorID,
        ReviewedUserID: rv.RecipientID,
        Rating:         rv.Rating,
        Comment:        rv.Comment,
        CreatedAt:      rv.CreatedAt,
    }
}
